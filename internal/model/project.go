package model

// Project is a portfolio entry. Slug is unique across projects.
type Project struct {
	Title       string   `json:"title" bson:"title" jsonschema:"title=Title,description=Project title,required"`
	Slug        string   `json:"slug" bson:"slug" jsonschema:"title=Slug,description=URL slug,required"`
	Client      *string  `json:"client" bson:"client" jsonschema:"title=Client,description=Client name"`
	Category    string   `json:"category" bson:"category" jsonschema:"title=Category,description=Category e.g. landing/ecommerce/saas/mobile/branding,required"`
	Description *string  `json:"description" bson:"description" jsonschema:"title=Description,description=Short description"`
	CoverImage  *string  `json:"cover_image" bson:"cover_image" jsonschema:"title=Cover Image,description=Cover image URL"`
	Tags        []string `json:"tags" bson:"tags" jsonschema:"title=Tags,description=Tags"`
	CaseURL     *string  `json:"case_url" bson:"case_url" jsonschema:"title=Case URL,description=Link to live site or case study"`
}

func (p *Project) ApplyDefaults() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
