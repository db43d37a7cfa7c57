package model

// Lead is a contact-form submission.
type Lead struct {
	FullName    string   `json:"full_name" bson:"full_name" validate:"min=2" jsonschema:"title=Full Name,description=Client full name,minLength=2,required"`
	Email       string   `json:"email" bson:"email" validate:"email" jsonschema:"title=Email,description=Client email,format=email,required"`
	Company     *string  `json:"company" bson:"company" jsonschema:"title=Company,description=Company or organization"`
	Phone       *string  `json:"phone" bson:"phone" jsonschema:"title=Phone,description=Phone number"`
	BudgetRange *string  `json:"budget_range" bson:"budget_range" jsonschema:"title=Budget Range,description=Estimated budget range"`
	Message     *string  `json:"message" bson:"message" jsonschema:"title=Message,description=Project description / needs"`
	Interests   []string `json:"interests" bson:"interests" jsonschema:"title=Interests,description=Services of interest"`
	Source      *string  `json:"source" bson:"source" jsonschema:"title=Source,description=How they found us"`
}

func (l *Lead) ApplyDefaults() {
	if l.Interests == nil {
		l.Interests = []string{}
	}
}
