package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datapact/internal/models"
)

func ordersContract() *models.Contract {
	return &models.Contract{
		Name: "orders",
		Fields: []models.ContractField{
			{Name: "order_id", DataType: "uuid", Nullable: false},
			{Name: "amount", DataType: "decimal", Nullable: false},
			{Name: "created_at", DataType: "timestamp", Nullable: false},
		},
	}
}

func schemaResponse(columns []any) map[string]any {
	return map[string]any{
		"tables": map[string]any{
			"orders": map[string]any{"columns": columns},
		},
	}
}

func TestValidateSchemaMatch(t *testing.T) {
	actual := schemaResponse([]any{
		map[string]any{"name": "order_id", "type": "uuid", "nullable": false},
		map[string]any{"name": "amount", "type": "numeric(10,2)", "nullable": false},
		map[string]any{"name": "created_at", "type": "timestamptz", "nullable": false},
	})

	v := ValidateSchema(ordersContract(), actual)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Warnings)
}

func TestValidateSchemaMissingField(t *testing.T) {
	actual := schemaResponse([]any{
		map[string]any{"name": "order_id", "type": "uuid", "nullable": false},
		map[string]any{"name": "created_at", "type": "timestamp with time zone", "nullable": false},
	})

	v := ValidateSchema(ordersContract(), actual)
	assert.False(t, v.IsValid)
	assert.Contains(t, v.Errors, "Missing required field: amount")
}

func TestValidateSchemaTypeMismatch(t *testing.T) {
	actual := schemaResponse([]any{
		map[string]any{"name": "order_id", "type": "VARCHAR(36)", "nullable": false},
		map[string]any{"name": "amount", "type": "numeric", "nullable": false},
		map[string]any{"name": "created_at", "type": "timestamptz", "nullable": false},
	})

	v := ValidateSchema(ordersContract(), actual)
	assert.False(t, v.IsValid)
	assert.Contains(t, v.Errors, "Type mismatch for 'order_id': expected uuid, got VARCHAR(36)")
}

func TestValidateSchemaNullability(t *testing.T) {
	actual := schemaResponse([]any{
		map[string]any{"name": "order_id", "type": "uuid", "nullable": true},
		map[string]any{"name": "amount", "type": "numeric", "nullable": false},
		map[string]any{"name": "created_at", "type": "timestamptz", "nullable": false},
	})

	v := ValidateSchema(ordersContract(), actual)
	assert.False(t, v.IsValid)
	assert.Contains(t, v.Errors, "Field 'order_id' should be NOT NULL but is nullable")
}

func TestValidateSchemaExtraColumnIsWarning(t *testing.T) {
	actual := schemaResponse([]any{
		map[string]any{"name": "order_id", "type": "uuid", "nullable": false},
		map[string]any{"name": "amount", "type": "numeric", "nullable": false},
		map[string]any{"name": "created_at", "type": "timestamptz", "nullable": false},
		map[string]any{"name": "internal_flag", "type": "boolean", "nullable": true},
	})

	v := ValidateSchema(ordersContract(), actual)
	assert.True(t, v.IsValid)
	assert.Contains(t, v.Warnings, "Undocumented field in schema: internal_flag")
}

func TestValidateSchemaMissingNullableDefaultsToNullable(t *testing.T) {
	contract := &models.Contract{
		Name: "orders",
		Fields: []models.ContractField{
			{Name: "order_id", DataType: "uuid", Nullable: false},
		},
	}
	actual := schemaResponse([]any{
		map[string]any{"name": "order_id", "type": "uuid"},
	})

	v := ValidateSchema(contract, actual)
	assert.False(t, v.IsValid)
	assert.Contains(t, v.Errors, "Field 'order_id' should be NOT NULL but is nullable")
}

func TestFlattenColumnsLastTableWins(t *testing.T) {
	contract := &models.Contract{
		Name: "orders",
		Fields: []models.ContractField{
			{Name: "id", DataType: "integer", Nullable: false},
		},
	}
	// Tables flatten in sorted name order, so "b_view" overrides "a_base".
	actual := map[string]any{
		"tables": map[string]any{
			"a_base": map[string]any{"columns": []any{
				map[string]any{"name": "id", "type": "integer", "nullable": false},
			}},
			"b_view": map[string]any{"columns": []any{
				map[string]any{"name": "id", "type": "text", "nullable": false},
			}},
		},
	}

	v := ValidateSchema(contract, actual)
	assert.False(t, v.IsValid)
	assert.Contains(t, v.Errors, "Type mismatch for 'id': expected integer, got text")
}

func TestValidateSchemaEmptyResponse(t *testing.T) {
	v := ValidateSchema(ordersContract(), map[string]any{})
	require.False(t, v.IsValid)
	assert.Len(t, v.Errors, 3)
}
