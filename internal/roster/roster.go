// Package roster reads and writes the plain-text member roster: one member per
// line, whitespace separated, either `id department role` or the full six-field
// form with interest, favorite activity and life goal. The literal "null" marks
// an unset attribute.
package roster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// Null is written for, and read back as, an unset attribute.
const Null = "null"

// Format selects how many fields Encode writes per record.
type Format int

const (
	// FormatMinimal writes id, department and role only.
	FormatMinimal Format = iota
	// FormatFull writes all six fields.
	FormatFull
)

const (
	minimalFields = 3
	fullFields    = 6
)

// ParseFormat maps "minimal" or "full" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "minimal":
		return FormatMinimal, nil
	case "full":
		return FormatFull, nil
	default:
		return FormatMinimal, fmt.Errorf("unknown roster format %q", s)
	}
}

// Columns returns the attributes a format writes after the id.
func Columns(format Format) []network.AttributeKey {
	if format == FormatFull {
		return []network.AttributeKey{
			network.AttrDepartment, network.AttrRole,
			network.AttrInterest, network.AttrFavoriteActivity, network.AttrLifeGoal,
		}
	}
	return []network.AttributeKey{network.AttrDepartment, network.AttrRole}
}

// Record is one roster line. Empty optional fields are unset.
type Record struct {
	ID               string `validate:"required,token,ne=null"`
	Department       string `validate:"omitempty,token,ne=null"`
	Role             string `validate:"omitempty,token,ne=null"`
	Interest         string `validate:"omitempty,token,ne=null"`
	FavoriteActivity string `validate:"omitempty,token,ne=null"`
	LifeGoal         string `validate:"omitempty,token,ne=null"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("token", validateToken); err != nil {
		panic(err)
	}
}

// validateToken rejects values that would split into several roster fields.
func validateToken(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}

// Validate checks that r can be written as a single roster line.
func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, formatFieldError(e))
			}
			return fmt.Errorf("invalid record: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "token":
		return fmt.Sprintf("%s must not contain whitespace", field)
	case "ne":
		return fmt.Sprintf("%s must not be %q", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// CheckValue reports whether an attribute value reads back unchanged after a
// roster round trip. Empty values and the word null both read back unset.
func CheckValue(value string) error {
	switch {
	case value == "":
		return errors.New("an empty value reads back from a roster as unset")
	case value == Null:
		return fmt.Errorf("%q is reserved for unset attributes in a roster", Null)
	case strings.ContainsFunc(value, unicode.IsSpace):
		return fmt.Errorf("%q contains whitespace and cannot be written to a roster", value)
	}
	return nil
}

// Attributes returns the record's set attributes.
func (r Record) Attributes() network.Attributes {
	attrs := network.Attributes{}
	set := func(k network.AttributeKey, v string) {
		if v != "" {
			attrs[k] = v
		}
	}
	set(network.AttrDepartment, r.Department)
	set(network.AttrRole, r.Role)
	set(network.AttrInterest, r.Interest)
	set(network.AttrFavoriteActivity, r.FavoriteActivity)
	set(network.AttrLifeGoal, r.LifeGoal)
	return attrs
}

// FromMember converts a member into a record. Attributes outside the roster
// columns are dropped.
func FromMember(m network.Member) Record {
	get := func(k network.AttributeKey) string {
		v, _ := m.Attribute(k)
		return v
	}
	return Record{
		ID:               m.ID,
		Department:       get(network.AttrDepartment),
		Role:             get(network.AttrRole),
		Interest:         get(network.AttrInterest),
		FavoriteActivity: get(network.AttrFavoriteActivity),
		LifeGoal:         get(network.AttrLifeGoal),
	}
}

// FromMembers converts members in order.
func FromMembers(members []network.Member) []Record {
	out := make([]Record, 0, len(members))
	for _, m := range members {
		out = append(out, FromMember(m))
	}
	return out
}

// ParseError reports a malformed roster line.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("roster line %d: %s", e.Line, e.Reason)
}

// Decode reads every record from r. Blank lines are skipped. Decoding stops at
// the first malformed line.
func Decode(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != minimalFields && len(fields) != fullFields {
			return records, &ParseError{
				Line:   line,
				Reason: fmt.Sprintf("expected %d or %d fields, got %d", minimalFields, fullFields, len(fields)),
			}
		}
		for i, f := range fields {
			if f == Null {
				fields[i] = ""
			}
		}
		rec := Record{ID: fields[0], Department: fields[1], Role: fields[2]}
		if len(fields) == fullFields {
			rec.Interest = fields[3]
			rec.FavoriteActivity = fields[4]
			rec.LifeGoal = fields[5]
		}
		if err := rec.Validate(); err != nil {
			return records, &ParseError{Line: line, Reason: err.Error()}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("read roster: %w", err)
	}
	return records, nil
}

// Encode writes records one per line in the given format. Only the columns
// the format writes are validated.
func Encode(w io.Writer, records []Record, format Format) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if format != FormatFull {
			rec.Interest, rec.FavoriteActivity, rec.LifeGoal = "", "", ""
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("encode %s: %w", rec.ID, err)
		}
		fields := []string{rec.ID, rec.Department, rec.Role}
		if format == FormatFull {
			fields = append(fields, rec.Interest, rec.FavoriteActivity, rec.LifeGoal)
		}
		for i, f := range fields {
			if f == "" {
				fields[i] = Null
			}
		}
		if _, err := bw.WriteString(strings.Join(fields, " ") + "\n"); err != nil {
			return fmt.Errorf("write roster: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile encodes records into a temporary file next to path and renames it
// into place. A failed encode leaves an existing file at path untouched.
func WriteFile(path string, records []Record, format Format) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp roster: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, records, format); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace roster: %w", err)
	}
	return nil
}

// Failure is a record that could not be applied.
type Failure struct {
	Record Record
	Err    error
}

// Apply registers every record with net in order. A rejected record (for
// example a duplicate id) is reported and the rest are still applied. It
// returns the number of members registered.
func Apply(net *network.Network, records []Record) (int, []Failure) {
	var failures []Failure
	applied := 0
	for _, rec := range records {
		if err := net.Register(rec.ID, rec.Attributes()); err != nil {
			failures = append(failures, Failure{Record: rec, Err: err})
			continue
		}
		applied++
	}
	return applied, failures
}
