package checks

import (
	"fmt"
	"sort"
	"strings"

	"datapact/internal/models"
)

// typeSynonyms maps abstract contract types to the database type strings
// they are compatible with. Matching is substring containment against the
// lowercased actual type, so "VARCHAR(255)" matches "varchar".
var typeSynonyms = map[string][]string{
	"string":    {"varchar", "text", "char", "character varying", "character"},
	"integer":   {"int", "integer", "bigint", "smallint", "serial", "bigserial", "int4", "int8"},
	"float":     {"float", "real", "double precision", "float4", "float8"},
	"decimal":   {"decimal", "numeric"},
	"boolean":   {"bool", "boolean"},
	"date":      {"date"},
	"datetime":  {"timestamp", "timestamp without time zone"},
	"timestamp": {"timestamp", "timestamp with time zone", "timestamptz"},
	"uuid":      {"uuid"},
	"json":      {"json", "jsonb"},
	"array":     {"array", "[]"},
}

// SchemaValidation is the outcome of comparing a contract against a live
// schema. Extra actual columns are warnings, not errors, so IsValid can
// hold with a non-empty Warnings list.
type SchemaValidation struct {
	ContractName string   `json:"contract_name"`
	IsValid      bool     `json:"is_valid"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
}

// Details renders the validation in the shape recorded on compliance
// results.
func (v SchemaValidation) Details() map[string]any {
	return map[string]any{
		"contract_name": v.ContractName,
		"is_valid":      v.IsValid,
		"errors":        v.Errors,
		"warnings":      v.Warnings,
	}
}

type actualColumn struct {
	Type     string
	Nullable bool
	Table    string
}

// ValidateSchema compares the contract's field list against the /schema
// response shape {tables: {name: {columns: [{name,type,nullable}]}}}.
// Columns from all tables are flattened into one name->column map before
// comparison; tables are visited in sorted name order and on a column name
// collision the later table wins (last-write-wins).
func ValidateSchema(contract *models.Contract, actualSchema map[string]any) SchemaValidation {
	v := SchemaValidation{
		ContractName: contract.Name,
		Errors:       []string{},
		Warnings:     []string{},
	}

	expected := make(map[string]models.ContractField, len(contract.Fields))
	for _, f := range contract.Fields {
		expected[f.Name] = f
	}

	actual := flattenColumns(actualSchema)

	for _, f := range contract.Fields {
		col, ok := actual[f.Name]
		if !ok {
			v.Errors = append(v.Errors, fmt.Sprintf("Missing required field: %s", f.Name))
			continue
		}

		if !typesCompatible(f.DataType, col.Type) {
			v.Errors = append(v.Errors, fmt.Sprintf(
				"Type mismatch for '%s': expected %s, got %s", f.Name, f.DataType, col.Type))
		}

		if !f.Nullable && col.Nullable {
			v.Errors = append(v.Errors, fmt.Sprintf(
				"Field '%s' should be NOT NULL but is nullable", f.Name))
		}
	}

	for name := range actual {
		if _, ok := expected[name]; !ok {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Undocumented field in schema: %s", name))
		}
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

func flattenColumns(actualSchema map[string]any) map[string]actualColumn {
	out := make(map[string]actualColumn)

	tables, _ := actualSchema["tables"].(map[string]any)
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, tableName := range names {
		table, _ := tables[tableName].(map[string]any)
		cols, _ := table["columns"].([]any)
		for _, rawCol := range cols {
			col, _ := rawCol.(map[string]any)
			name, _ := col["name"].(string)
			if name == "" {
				continue
			}
			colType, _ := col["type"].(string)
			nullable := true
			if n, ok := col["nullable"].(bool); ok {
				nullable = n
			}
			out[name] = actualColumn{Type: colType, Nullable: nullable, Table: tableName}
		}
	}

	return out
}

func typesCompatible(contractType, dbType string) bool {
	dbLower := strings.ToLower(dbType)
	for _, syn := range typeSynonyms[contractType] {
		if strings.Contains(dbLower, syn) {
			return true
		}
	}
	return false
}
