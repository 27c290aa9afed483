package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Options accepted after the variable name in an env tag, e.g. `env:"STORAGE_DRIVER,lower"`.
const (
	envOptLower = "lower" // trimmed and lower-cased
	envOptBytes = "bytes" // integer with an optional KB/MB/GB (or KiB/MiB/GiB) suffix
)

var byteUnits = []struct {
	suffix string
	factor int64
}{
	{"kib", 1 << 10}, {"mib", 1 << 20}, {"gib", 1 << 30},
	{"kb", 1 << 10}, {"mb", 1 << 20}, {"gb", 1 << 30},
	{"b", 1},
}

// applyEnv overrides every tagged field of the config sections with its environment variable
func applyEnv(s interface{}) error {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		// Config sections are anonymous structs
		if field.Kind() == reflect.Struct {
			if err := applyEnv(field.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		name, opts, _ := strings.Cut(fieldType.Tag.Get("env"), ",")
		if name == "" {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}

		if err := setField(field, raw, opts); err != nil {
			return fmt.Errorf("failed to set field %s from env var %s: %w", fieldType.Name, name, err)
		}
	}
	return nil
}

// setField parses raw into field according to the field kind and the tag options
func setField(field reflect.Value, raw, opts string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		if opts == envOptLower {
			raw = strings.ToLower(strings.TrimSpace(raw))
		}
		field.SetString(raw)

	case reflect.Int, reflect.Int32, reflect.Int64:
		var (
			n   int64
			err error
		)
		if opts == envOptBytes {
			n, err = parseByteSize(raw)
		} else {
			n, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		}
		if err != nil {
			return fmt.Errorf("invalid integer format: %w", err)
		}
		if field.OverflowInt(n) {
			return fmt.Errorf("value %d out of range", n)
		}
		field.SetInt(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid boolean format: %w", err)
		}
		field.SetBool(b)

	case reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("invalid float format: %w", err)
		}
		field.SetFloat(f)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// parseByteSize reads "20971520", "20MB" or "512 KiB"
func parseByteSize(raw string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	factor := int64(1)
	for _, u := range byteUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			factor = u.factor
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > (1<<62)/factor {
		return 0, fmt.Errorf("size %q out of range", raw)
	}
	return n * factor, nil
}
