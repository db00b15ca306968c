// Copyright 2025 James Ross
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOrderAccepts(t *testing.T) {
	raw := []byte(`{"orderID":1,"customer":"Jeff","drinks":[{"drink":"Espresso","milk":"No Milk","shots":2}]}`)
	assert.NoError(t, ValidateOrder(raw))
}

func TestValidateOrderRejectsMissingCustomer(t *testing.T) {
	raw := []byte(`{"orderID":1,"drinks":[{"drink":"Espresso"}]}`)
	assert.Error(t, ValidateOrder(raw))
}

func TestValidateOrderRejectsEmptyDrinks(t *testing.T) {
	raw := []byte(`{"orderID":1,"customer":"Jeff","drinks":[]}`)
	assert.Error(t, ValidateOrder(raw))
}
