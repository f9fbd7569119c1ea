package handlers

import "testing"

func TestMenuPayloadValidate(t *testing.T) {
	cases := []struct {
		name    string
		payload menuPayload
		fields  []string
	}{
		{
			name:    "valid",
			payload: menuPayload{Name: "Flat White", Category: "coffee", Price: 28000},
		},
		{
			name:    "missing name and category",
			payload: menuPayload{Price: 1000},
			fields:  []string{"name", "category"},
		},
		{
			name:    "unknown category",
			payload: menuPayload{Name: "Tea", Category: "drinks"},
			fields:  []string{"category"},
		},
		{
			name:    "negative price",
			payload: menuPayload{Name: "Tea", Category: "coffee", Price: -1},
			fields:  []string{"price"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.payload.validate()
			if len(got) != len(tc.fields) {
				t.Fatalf("expected %d errors, got %v", len(tc.fields), got)
			}
			for _, field := range tc.fields {
				if _, ok := got[field]; !ok {
					t.Fatalf("expected error for %s, got %v", field, got)
				}
			}
		})
	}
}

func TestInventoryItemPayloadValidate(t *testing.T) {
	valid := inventoryItemPayload{
		Name: "Arabica Beans", Category: "beans", Unit: "kg",
		CurrentStock: 12, MinimumStock: 3, UnitPrice: 150000,
	}
	if got := valid.validate(); len(got) != 0 {
		t.Fatalf("expected no errors, got %v", got)
	}

	bad := inventoryItemPayload{CurrentStock: -1, MinimumStock: -1, UnitPrice: -1}
	got := bad.validate()
	for _, field := range []string{"name", "category", "unit", "currentStock", "minimumStock", "unitPrice"} {
		if _, ok := got[field]; !ok {
			t.Fatalf("expected error for %s, got %v", field, got)
		}
	}
}

func TestMenuIngredientPayloadValidate(t *testing.T) {
	valid := menuIngredientPayload{MenuID: 1, ItemID: 2, QuantityNeeded: 0.5}
	if got := valid.validate(); len(got) != 0 {
		t.Fatalf("expected no errors, got %v", got)
	}

	bad := menuIngredientPayload{QuantityNeeded: 0}
	got := bad.validate()
	for _, field := range []string{"menuId", "itemId", "quantityNeeded"} {
		if _, ok := got[field]; !ok {
			t.Fatalf("expected error for %s, got %v", field, got)
		}
	}
}
