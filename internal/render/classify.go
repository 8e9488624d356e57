// Package render turns a booking submission into the human-readable HTML and
// plain-text documents used for notification emails.
//
// Classification and rendering are pure functions: no storage or network
// access, and the same input always produces the same output.
package render

import (
	"sort"
	"strings"

	"github.com/calebross/stagebook/internal/domain"
)

// =============================================================================
// Classification Rules
// =============================================================================

// roleKey is the literal field naming the respondent's role category. It has
// no contact_ prefix on the form but belongs with the contact details.
const roleKey = "what_best_describes_you"

// Server and client timestamp keys.
const (
	submittedAtKey = "submitted_at"
	createdAtKey   = "created_at"
)

// excludedKeys are internal keys never rendered, regardless of value: the
// store-assigned identifier and the raw file payload field names.
var excludedKeys = map[string]bool{
	"id":           true,
	"_id":          true,
	"booking_file": true,
	"file":         true,
}

// groupOrder is the fixed order groups appear in rendered output.
var groupOrder = []domain.FieldGroup{
	domain.GroupContact,
	domain.GroupProject,
	domain.GroupEquipment,
	domain.GroupBilling,
	domain.GroupMeta,
}

// preferredOrder lists the known keys of each group in display order. Keys
// present in a submission but absent here are appended afterward.
var preferredOrder = map[domain.FieldGroup][]string{
	domain.GroupContact: {
		"contact_name",
		"contact_email",
		"contact_phone",
		"contact_company",
		roleKey,
	},
	domain.GroupProject: {
		"general_project-type",
		"general_project-description",
		"general_start-date",
		"general_end-date",
		"general_location",
		"general_budget",
	},
	domain.GroupEquipment: {
		"general_equipment",
		"general_equipment-notes",
	},
	domain.GroupBilling: {
		"billing_name",
		"billing_company",
		"billing_address",
		"billing_city",
		"billing_zip",
		"billing_country",
	},
	domain.GroupMeta: {
		submittedAtKey,
		createdAtKey,
	},
}

// labels maps known keys to their display labels. Unknown keys fall back to
// a label generated from the key itself.
var labels = map[string]string{
	"contact_name":                "Name",
	"contact_email":               "Email",
	"contact_phone":               "Phone",
	"contact_company":             "Company",
	roleKey:                       "What best describes you",
	"general_project-type":        "Project type",
	"general_project-description": "Project description",
	"general_start-date":          "Start date",
	"general_end-date":            "End date",
	"general_location":            "Location",
	"general_budget":              "Budget",
	"general_equipment":           "Equipment",
	"general_equipment-notes":     "Equipment notes",
	"billing_name":                "Billing name",
	"billing_company":             "Billing company",
	"billing_address":             "Billing address",
	"billing_city":                "City",
	"billing_zip":                 "ZIP / postal code",
	"billing_country":             "Country",
	submittedAtKey:                "Submitted at",
	createdAtKey:                  "Received at",
}

// =============================================================================
// Classified Output Types
// =============================================================================

// Field is a single classified field ready for rendering.
type Field struct {
	Key   string // Original submission key
	Label string // Display label
	Value string // Joined display value
}

// Section is one non-empty field group in display order.
type Section struct {
	Group  domain.FieldGroup
	Fields []Field
}

// =============================================================================
// Classifier
// =============================================================================

// GroupFor assigns a submission key to exactly one field group.
//
// Rules, in precedence order:
//   - the literal role key and the contact_ prefix -> Contact
//   - the general_equipment prefix -> Equipment
//   - any other general_ prefix -> Project
//   - the billing_ prefix -> Billing
//   - the client and server timestamp keys -> Meta
//   - anything else -> Project
func GroupFor(key string) domain.FieldGroup {
	switch {
	case key == roleKey || strings.HasPrefix(key, "contact_"):
		return domain.GroupContact
	case strings.HasPrefix(key, "general_equipment"):
		return domain.GroupEquipment
	case strings.HasPrefix(key, "general_"):
		return domain.GroupProject
	case strings.HasPrefix(key, "billing_"):
		return domain.GroupBilling
	case key == submittedAtKey || key == createdAtKey:
		return domain.GroupMeta
	default:
		return domain.GroupProject
	}
}

// LabelFor returns the display label for a key: the lookup table for known
// keys, otherwise a generated label with separators replaced by spaces and
// each word capitalized.
func LabelFor(key string) string {
	if label, ok := labels[canonicalKey(key)]; ok {
		return label
	}
	return generatedLabel(key)
}

// Classify assigns every non-blank, non-excluded field of a submission to a
// section, ordered by group and by each group's preferred key order. Keys
// not in the preferred list are appended in lexicographic order so output is
// deterministic for the same input.
func Classify(sub domain.Submission) []Section {
	grouped := make(map[domain.FieldGroup][]string)
	for key, value := range sub {
		if excludedKeys[key] || value.IsBlank() {
			continue
		}
		group := GroupFor(key)
		grouped[group] = append(grouped[group], key)
	}

	var sections []Section
	for _, group := range groupOrder {
		keys := grouped[group]
		if len(keys) == 0 {
			continue
		}

		ordered := orderKeys(group, keys)
		fields := make([]Field, 0, len(ordered))
		for _, key := range ordered {
			fields = append(fields, Field{
				Key:   key,
				Label: LabelFor(key),
				Value: sub[key].String(),
			})
		}
		sections = append(sections, Section{Group: group, Fields: fields})
	}

	return sections
}

// orderKeys sorts a group's present keys: preferred keys first in their fixed
// order, then the rest sorted lexicographically.
func orderKeys(group domain.FieldGroup, keys []string) []string {
	// Map canonical form back to the key as submitted, so case variants
	// keep their original spelling in the output.
	present := make(map[string]string, len(keys))
	for _, key := range keys {
		present[canonicalKey(key)] = key
	}

	used := make(map[string]bool, len(keys))
	ordered := make([]string, 0, len(keys))
	for _, preferred := range preferredOrder[group] {
		if original, ok := present[preferred]; ok {
			ordered = append(ordered, original)
			used[preferred] = true
		}
	}

	var rest []string
	for _, key := range keys {
		if !used[canonicalKey(key)] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	return append(ordered, rest...)
}

// canonicalKey normalizes the accepted case variant of the billing country
// key so it shares the position and label of the canonical form.
func canonicalKey(key string) string {
	if key == "billing_Country" {
		return "billing_country"
	}
	return key
}

// generatedLabel builds a fallback label from a key: underscores and hyphens
// become spaces and the first letter of each word is capitalized.
func generatedLabel(key string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(key)
	words := strings.Fields(cleaned)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
