package inventory

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/shared"
)

func TestProductRef_Construction(t *testing.T) {
	t.Run("product ref", func(t *testing.T) {
		id := uuid.New()
		ref, err := NewProductRef(id)

		require.NoError(t, err)
		assert.True(t, ref.IsProduct())
		assert.False(t, ref.IsVariant())
		assert.Equal(t, id, ref.ID())
		assert.False(t, ref.IsZero())
	})

	t.Run("variant ref", func(t *testing.T) {
		id := uuid.New()
		ref, err := NewVariantRef(id)

		require.NoError(t, err)
		assert.True(t, ref.IsVariant())
		assert.Equal(t, id, ref.ID())
	})

	t.Run("nil ids rejected", func(t *testing.T) {
		_, err := NewProductRef(uuid.Nil)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)

		_, err = NewVariantRef(uuid.Nil)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})

	t.Run("zero value is invalid", func(t *testing.T) {
		var ref ProductRef
		assert.True(t, ref.IsZero())
	})
}

func TestProductRefFromColumns(t *testing.T) {
	productID := uuid.New()
	variantID := uuid.New()

	t.Run("product column set", func(t *testing.T) {
		ref, err := ProductRefFromColumns(&productID, nil)

		require.NoError(t, err)
		assert.True(t, ref.IsProduct())
		assert.Equal(t, productID, ref.ID())
	})

	t.Run("variant column set", func(t *testing.T) {
		ref, err := ProductRefFromColumns(nil, &variantID)

		require.NoError(t, err)
		assert.True(t, ref.IsVariant())
	})

	t.Run("both set violates the XOR", func(t *testing.T) {
		_, err := ProductRefFromColumns(&productID, &variantID)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})

	t.Run("neither set violates the XOR", func(t *testing.T) {
		_, err := ProductRefFromColumns(nil, nil)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})
}

func TestProductRef_Columns(t *testing.T) {
	productID := uuid.New()
	ref := MustProductRef(productID)

	p, v := ref.Columns()

	require.NotNil(t, p)
	assert.Equal(t, productID, *p)
	assert.Nil(t, v)

	roundTripped, err := ProductRefFromColumns(p, v)
	require.NoError(t, err)
	assert.True(t, ref.Equals(roundTripped))
}

func TestProductRef_JSON(t *testing.T) {
	ref := MustVariantRef(uuid.New())

	data, err := json.Marshal(ref)
	require.NoError(t, err)

	var decoded ProductRef
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, ref.Equals(decoded))

	t.Run("rejects unknown kind", func(t *testing.T) {
		var bad ProductRef
		err := json.Unmarshal([]byte(`{"kind":"bundle","id":"`+uuid.NewString()+`"}`), &bad)
		assert.Error(t, err)
	})
}
