package config

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"mlpipe/pkg/serrors"
)

// ApplyOverrides applies --set style key=value pairs onto the configuration.
// Keys are dotted paths over the yaml tags, e.g. "etl.minPrice=15" or
// "modeling.randomForest.nEstimators=200". Unknown keys and unparsable values
// are rejected so a typo fails the run before any step executes.
func ApplyOverrides(cfg *Config, pairs []string) error {
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return serrors.With(serrors.ErrInvalidConfig, "override %q is not key=value", pair)
		}

		field, err := resolve(reflect.ValueOf(cfg).Elem(), key)
		if err != nil {
			return err
		}

		if err := setField(field, key, value); err != nil {
			return err
		}
	}

	return nil
}

// resolve walks the dotted path through nested structs by yaml tag.
func resolve(v reflect.Value, key string) (reflect.Value, error) {
	current := v
	for _, part := range strings.Split(key, ".") {
		if current.Kind() != reflect.Struct {
			return reflect.Value{}, serrors.With(serrors.ErrInvalidConfig,
				"override key %q descends into a non-struct value", key)
		}

		field, ok := fieldByTag(current, part)
		if !ok {
			return reflect.Value{}, serrors.With(serrors.ErrInvalidConfig,
				"unknown config key %q (at %q)", key, part)
		}
		current = field
	}

	if current.Kind() == reflect.Struct {
		return reflect.Value{}, serrors.With(serrors.ErrInvalidConfig,
			"config key %q is a section, not a value", key)
	}

	return current, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		tag, _, _ = strings.Cut(tag, ",")
		if tag == name {
			return v.Field(i), true
		}
	}

	return reflect.Value{}, false
}

func setField(field reflect.Value, key, value string) error {
	invalid := func(kind string) error {
		return serrors.With(serrors.ErrInvalidConfig,
			"override %q: %q is not a valid %s", key, value, kind)
	}

	// time.Duration is an int64 underneath but reads as "2m"/"30s".
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return invalid("duration")
		}
		field.SetInt(int64(d))

		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalid("bool")
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return invalid("integer")
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return invalid("float")
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return serrors.With(serrors.ErrInvalidConfig, "override %q: unsupported slice type", key)
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return serrors.With(serrors.ErrInvalidConfig,
			"override %q: unsupported field kind %s", key, field.Kind())
	}

	return nil
}
