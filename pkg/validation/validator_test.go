package validation

import (
	"testing"

	"realty-system/internal/dto"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ListingDTO(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	valid := dto.ListingDTO{
		LocalityID: 1,
		Area:       54.5,
		Price:      90000,
		Status:     "ON_SALE",
		Floor:      null.IntFrom(3),
	}
	assert.NoError(t, v.Validate(valid))

	badStatus := valid
	badStatus.Status = "RESERVED"
	assert.Error(t, v.Validate(badStatus))

	negativeFloor := valid
	negativeFloor.Floor = null.IntFrom(-1)
	assert.Error(t, v.Validate(negativeFloor))
}

func TestValidator_NullFieldsAreOptional(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	criteria := dto.MatchCriteriaDTO{}
	assert.NoError(t, v.Validate(criteria))

	criteria.PricePerAreaMax = null.Float64From(0)
	assert.Error(t, v.Validate(criteria), "gt=0 должно проверяться для заданного значения")
}

func TestValidator_ClientRules(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	client := dto.ClientDTO{Fio: "Иванов И.И.", PhoneNumber: "+992900000001", ObjectKind: "apartment"}
	assert.NoError(t, v.Validate(client))

	client.PhoneNumber = "900-00-01"
	assert.Error(t, v.Validate(client))

	client.PhoneNumber = "+992900000001"
	client.ObjectKind = "castle"
	assert.Error(t, v.Validate(client))

	assert.NoError(t, v.Validate(dto.ClientStatusDTO{Status: "WITH_SHOW"}))
	assert.Error(t, v.Validate(dto.ClientStatusDTO{Status: "SOLD"}))
}
