package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"authweb/internal/helpers"

	"github.com/go-playground/validator/v10"
)

type BodyKey struct{}

var validate = validator.New()

// Validate decodes the request body into T (JSON, or an HTML form using the
// struct's form tags), validates it, and stores it in the request context.
// Malformed or invalid input is a local error; the request never reaches
// the handler and no remote call is made.
func Validate[T any](next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		var body T

		contentType := r.Header.Get("Content-Type")
		if strings.HasPrefix(contentType, "application/json") {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				helpers.RespondWithError(w, http.StatusBadRequest, []string{"MALFORMED_BODY"})
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				helpers.RespondWithError(w, http.StatusBadRequest, []string{"MALFORMED_BODY"})
				return
			}
			decodeForm(r, &body)
		}

		if err := validate.Struct(body); err != nil {
			helpers.RespondWithError(w, http.StatusBadRequest, validationCodes(err))
			return
		}

		ctx := context.WithValue(r.Context(), BodyKey{}, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

// GetBody retrieves the validated body placed in the context by Validate.
func GetBody[T any](r *http.Request) T {
	body, _ := r.Context().Value(BodyKey{}).(T)
	return body
}

// decodeForm fills string fields of dst from form values using `form` tags.
// Only string fields are needed by the screens this application serves.
func decodeForm(r *http.Request, dst any) {
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("form")
		if tag == "" || field.Type.Kind() != reflect.String {
			continue
		}
		if val := r.PostFormValue(tag); val != "" {
			v.Field(i).SetString(val)
		}
	}
}

func validationCodes(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"INVALID_BODY"}
	}
	codes := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		codes = append(codes, "INVALID_"+strings.ToUpper(fe.Field()))
	}
	return codes
}
