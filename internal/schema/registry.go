// Package schema maps entity names to their collections, validation rules and
// published JSON-Schema descriptions. The rules live in struct tags on the
// model types.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"otikaapi/internal/apperr"
	"otikaapi/internal/model"
)

// Entity describes one registered record type.
type Entity struct {
	// Name is the logical entity name used by callers ("lead").
	Name string
	// Collection is the storage partition holding the entity's documents.
	Collection string
	Title       string
	Description string
	// Unique lists JSON field names whose values must not repeat within Collection.
	Unique []string
	// New returns a pointer to a zero value of the entity's struct.
	New func() any
}

// Lead and Project are the entity names served by the API.
const (
	Lead    = "lead"
	Project = "project"
)

// Registry holds the entity table. It is read-only after construction and safe
// for concurrent use.
type Registry struct {
	entities  map[string]Entity
	order     []string
	validate  *validator.Validate
	reflector *jsonschema.Reflector
}

// NewRegistry builds a registry from entities, preserving their order.
func NewRegistry(entities ...Entity) *Registry {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	r := &Registry{
		entities: make(map[string]Entity, len(entities)),
		validate: v,
		reflector: &jsonschema.Reflector{
			Anonymous:                  true,
			DoNotReference:             true,
			AllowAdditionalProperties:  true,
			RequiredFromJSONSchemaTags: true,
		},
	}
	for _, e := range entities {
		if _, dup := r.entities[e.Name]; !dup {
			r.order = append(r.order, e.Name)
		}
		r.entities[e.Name] = e
	}
	return r
}

// Default returns the registry for leads and projects.
func Default() *Registry {
	return NewRegistry(
		Entity{
			Name:        Lead,
			Collection:  "lead",
			Title:       "Lead",
			Description: "Leads generated from the contact form",
			New:         func() any { return &model.Lead{} },
		},
		Entity{
			Name:        Project,
			Collection:  "project",
			Title:       "Project",
			Description: "Portfolio projects",
			Unique:      []string{"slug"},
			New:         func() any { return &model.Project{} },
		},
	)
}

// Names returns the registered entity names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the entity registered under name.
func (r *Registry) Lookup(name string) (Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return Entity{}, apperr.New(apperr.KindNotFound, fmt.Sprintf("unknown entity %q", name))
	}
	return e, nil
}

// Collection resolves the collection name for an entity.
func (r *Registry) Collection(name string) (string, error) {
	e, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	return e.Collection, nil
}

// Validate decodes raw into the entity's struct and checks every constraint.
// On failure the returned error is an *apperr.Error of KindValidation listing
// all violations, not just the first. Unknown fields are ignored.
func (r *Registry) Validate(name string, raw []byte) (any, error) {
	e, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, apperr.Validation([]apperr.Violation{{Field: "body", Message: "body must be a JSON object"}})
	}

	v := e.New()
	rv := reflect.ValueOf(v).Elem()
	rt := rv.Type()

	required := make(map[string]bool)
	for _, name := range requiredFields(rt) {
		required[name] = true
	}

	position := make(map[string]int, rt.NumField())
	flagged := make(map[string]bool)
	var violations []apperr.Violation
	flag := func(field, msg string) {
		violations = append(violations, apperr.Violation{Field: field, Message: msg})
		flagged[field] = true
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		name := jsonFieldName(sf)
		if name == "" {
			continue
		}
		position[name] = i

		msg, present := fields[name]
		null := present && bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
		switch {
		case required[name] && (!present || null):
			flag(name, "field required")
			continue
		case !present:
			continue
		case null && sf.Type.Kind() != reflect.Ptr:
			// Only pointer fields are optional-nullable.
			flag(name, typeMessage(sf.Type))
			continue
		}
		if err := json.Unmarshal(msg, rv.Field(i).Addr().Interface()); err != nil {
			flag(name, typeMessage(sf.Type))
		}
	}

	if err := r.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, apperr.Wrap(apperr.KindInternal, err)
		}
		for _, fe := range verrs {
			if flagged[fe.Field()] {
				continue
			}
			violations = append(violations, apperr.Violation{Field: fe.Field(), Message: constraintMessage(fe)})
		}
	}

	if len(violations) > 0 {
		sort.SliceStable(violations, func(i, j int) bool {
			return position[violations[i].Field] < position[violations[j].Field]
		})
		return nil, apperr.Validation(violations)
	}

	if d, ok := v.(model.Defaulter); ok {
		d.ApplyDefaults()
	}
	return v, nil
}

// Describe returns the JSON-Schema description of an entity. Required fields,
// nullable pointer fields and list defaults match what Validate accepts and
// what the store returns.
func (r *Registry) Describe(name string) (*jsonschema.Schema, error) {
	e, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	proto := reflect.ValueOf(e.New()).Elem()
	s := r.reflector.Reflect(proto.Interface())
	s.Title = e.Title
	s.Description = e.Description
	s.Required = requiredFields(proto.Type())
	annotateProperties(s, proto.Type())
	return s, nil
}

// annotateProperties marks pointer fields as string-or-null and gives list
// fields their [] default.
func annotateProperties(s *jsonschema.Schema, t reflect.Type) {
	if s.Properties == nil {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		prop, ok := s.Properties.Get(jsonFieldName(sf))
		if !ok || prop == nil {
			continue
		}
		switch sf.Type.Kind() {
		case reflect.Ptr:
			prop.AnyOf = []*jsonschema.Schema{
				{Type: prop.Type, Format: prop.Format},
				{Type: "null"},
			}
			prop.Type, prop.Format = "", ""
		case reflect.Slice:
			prop.Default = []any{}
		}
	}
}

// requiredFields lists the JSON names of fields tagged `jsonschema:"...,required"`.
func requiredFields(t reflect.Type) []string {
	var out []string
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		for _, rule := range strings.Split(sf.Tag.Get("jsonschema"), ",") {
			if rule == "required" {
				if name := jsonFieldName(sf); name != "" {
					out = append(out, name)
				}
				break
			}
		}
	}
	return out
}

func jsonFieldName(sf reflect.StructField) string {
	name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return sf.Name
	}
	return name
}

func typeMessage(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "value is not a valid string"
	case reflect.Slice:
		return "value is not a valid list of " + t.Elem().Kind().String() + "s"
	case reflect.Int, reflect.Int64, reflect.Int32:
		return "value is not a valid integer"
	case reflect.Float64, reflect.Float32:
		return "value is not a valid number"
	case reflect.Bool:
		return "value is not a valid boolean"
	default:
		return "value has the wrong type"
	}
}

func constraintMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		return fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
	case "email":
		return "value is not a valid email address"
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}
