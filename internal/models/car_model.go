package models

// Car is a read-only catalog entry shown in the fleet listing.
type Car struct {
	Name         string  `json:"name" yaml:"name" bson:"name" firestore:"name"`
	Category     string  `json:"category" yaml:"category" bson:"category" firestore:"category"`
	Image        string  `json:"image" yaml:"image" bson:"image" firestore:"image"`
	Price        float64 `json:"price" yaml:"price" bson:"price" firestore:"price"` // daily rate
	Seats        int     `json:"seats" yaml:"seats" bson:"seats" firestore:"seats"`
	Fuel         string  `json:"fuel" yaml:"fuel" bson:"fuel" firestore:"fuel"`
	Transmission string  `json:"transmission" yaml:"transmission" bson:"transmission" firestore:"transmission"`
}
