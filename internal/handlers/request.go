package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"familytree/internal/models"
	"familytree/internal/repository"
	"familytree/internal/service"
)

// validate is shared by all request DTOs. Field errors are reported by
// their JSON names.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("isodate", validateISODate); err != nil {
		panic(fmt.Sprintf("failed to register isodate validator: %v", err))
	}
}

// validateISODate accepts YYYY-MM-DD calendar dates
func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}

type createFamilyRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type joinFamilyRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}

type personRequest struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	MiddleName string `json:"middle_name" validate:"max=100"`
	LastName   string `json:"last_name" validate:"max=100"`
	Gender     string `json:"gender" validate:"required,oneof=male female other"`
	BirthDate  string `json:"birth_date" validate:"omitempty,isodate"`
	BirthPlace string `json:"birth_place" validate:"max=200"`
	DeathDate  string `json:"death_date" validate:"omitempty,isodate"`
	DeathPlace string `json:"death_place" validate:"max=200"`
	IsLiving   *bool  `json:"is_living"`
	Notes      string `json:"notes" validate:"max=10000"`
}

func (p personRequest) input() service.PersonInput {
	return service.PersonInput{
		FirstName:  p.FirstName,
		MiddleName: p.MiddleName,
		LastName:   p.LastName,
		Gender:     p.Gender,
		BirthDate:  p.BirthDate,
		BirthPlace: p.BirthPlace,
		DeathDate:  p.DeathDate,
		DeathPlace: p.DeathPlace,
		IsLiving:   p.IsLiving,
		Notes:      p.Notes,
	}
}

type createRelationshipRequest struct {
	RelatedPersonID int64  `json:"related_person_id" validate:"required,gt=0"`
	Type            string `json:"relationship_type" validate:"required,oneof=parent child spouse"`
}

// decodeJSON reads a size-bounded JSON body into dst and validates it. The
// returned error message is safe to show to the client.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%s: %v", ErrInvalidRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "isodate":
			msgs = append(msgs, fe.Field()+" must be a YYYY-MM-DD date")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// pathID parses a positive integer path value
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: %s", ErrInvalidID, name)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", ErrInvalidQueryParameter, name)
	}
	return &v, nil
}

// queryBool parses an optional boolean query parameter
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", ErrInvalidQueryParameter, name)
	}
	return &v, nil
}

// personSearch builds a search from name, gender, is_living,
// birth_year_from and birth_year_to
func personSearch(r *http.Request) (repository.PersonSearch, error) {
	search := repository.PersonSearch{Name: r.URL.Query().Get("name")}

	if raw := r.URL.Query().Get("gender"); raw != "" {
		gender, err := models.ParseGender(raw)
		if err != nil {
			return search, fmt.Errorf("%s: gender", ErrInvalidQueryParameter)
		}
		search.Gender = gender
	}

	living, err := queryBool(r, "is_living")
	if err != nil {
		return search, err
	}
	search.IsLiving = living

	from, err := queryInt(r, "birth_year_from")
	if err != nil {
		return search, err
	}
	if from != nil {
		search.BirthYearFrom = *from
	}
	to, err := queryInt(r, "birth_year_to")
	if err != nil {
		return search, err
	}
	if to != nil {
		search.BirthYearTo = *to
	}
	return search, nil
}
