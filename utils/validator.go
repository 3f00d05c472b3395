package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
)

// Minimal internal validator to avoid external dependency. Supports:
// - required
// - kindok (lowercase letters/digits/hyphen/underscore, 1-32 chars; action
//   types and gift/task kinds)
// - nameok (letters, numbers, space, hyphen, apostrophe, underscore, 1-128 chars)

var (
	reKindOK = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)
	reNameOK = regexp.MustCompile(`^[\p{L}0-9 \-'_]{1,128}$`)
)

// ValidateStruct inspects struct tags `validate:"..."` and returns the first error encountered.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("ValidateStruct expects a struct or pointer to struct")
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		parts := strings.Split(tag, ",")
		fv := v.Field(i)
		var sval string
		if fv.IsValid() && fv.Kind() == reflect.String {
			sval = fv.String()
		}
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "required" {
				switch fv.Kind() {
				case reflect.String:
					if sval == "" {
						return errors.New(field.Name + " is required")
					}
				case reflect.Int, reflect.Int64:
					if fv.Int() == 0 {
						return errors.New(field.Name + " is required")
					}
				}
			} else if p == "kindok" {
				if sval != "" && !reKindOK.MatchString(sval) {
					return errors.New(field.Name + " contains invalid characters")
				}
			} else if p == "nameok" {
				if sval != "" && !reNameOK.MatchString(sval) {
					return errors.New(field.Name + " contains invalid characters")
				}
			}
		}
	}
	return nil
}
