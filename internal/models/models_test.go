package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	t.Run("date only", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`"2025-03-09"`), &d))
		assert.Equal(t, NewDate(2025, time.March, 9), d)

		b, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, `"2025-03-09"`, string(b))
	})

	t.Run("timestamp keeps written day", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`"2025-03-09T22:30:00-03:00"`), &d))
		assert.Equal(t, "2025-03-09", d.String())
	})

	t.Run("null and empty are zero", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`null`), &d))
		assert.True(t, d.IsZero())
		require.NoError(t, json.Unmarshal([]byte(`""`), &d))
		assert.True(t, d.IsZero())

		b, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, "null", string(b))
	})

	t.Run("garbage", func(t *testing.T) {
		var d Date
		assert.Error(t, json.Unmarshal([]byte(`"09/03/2025"`), &d))
	})
}

func TestDateScanValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-12-31", d.String())

	require.NoError(t, d.Scan([]byte("2024-01-05")))
	assert.Equal(t, "2024-01-05", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, d.Scan(42))
}

func TestDateBetween(t *testing.T) {
	d := NewDate(2025, 5, 10)
	assert.True(t, d.Between(NewDate(2025, 5, 10), NewDate(2025, 5, 10)))
	assert.True(t, d.Between(Date{}, Date{}))
	assert.True(t, d.Between(NewDate(2025, 1, 1), Date{}))
	assert.False(t, d.Between(NewDate(2025, 5, 11), Date{}))
	assert.False(t, d.Between(Date{}, NewDate(2025, 5, 9)))
}

func TestEnums(t *testing.T) {
	for _, s := range ReportStatuses {
		assert.True(t, s.Valid(), s)
		assert.NotEmpty(t, s.Label())
	}
	for _, a := range AnalysisTypes {
		assert.True(t, a.Valid(), a)
	}
	assert.False(t, ReportStatus("valid").Valid())
	assert.False(t, AnalysisType("water").Valid())
	assert.Equal(t, "Em Análise", StatusUnderReview.Label())
	assert.Equal(t, "Análise de Água", AnalysisWater.Label())
}

func TestCanTransition(t *testing.T) {
	for _, from := range ReportStatuses {
		for _, to := range ReportStatuses {
			assert.True(t, CanTransition(from, to, false), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransition(StatusValid, "bogus", false))
	assert.True(t, CanTransition(StatusUnderReview, StatusValid, true))
	assert.True(t, CanTransition(StatusValid, StatusSuperseded, true))
	assert.False(t, CanTransition(StatusCancelled, StatusValid, true))
	assert.False(t, CanTransition(StatusSuperseded, StatusUnderReview, true))
	assert.True(t, CanTransition(StatusCancelled, StatusCancelled, true))
}

func TestPublicView(t *testing.T) {
	r := Report{
		ID:   uuid.New(),
		Code: "LAB-001",
		Client: &Client{
			ID:       uuid.New(),
			Name:     "Ana",
			Email:    "ana@x.com",
			Document: "123",
			Phone:    "555",
			Company:  "Fazenda Boa Vista",
		},
	}

	pub := r.PublicView()
	require.NotNil(t, pub.Client)
	assert.Equal(t, "Ana", pub.Client.Name)
	assert.Equal(t, "Fazenda Boa Vista", pub.Client.Company)
	assert.Empty(t, pub.Client.Email)
	assert.Empty(t, pub.Client.Phone)
	assert.Empty(t, pub.Client.Document)
	assert.Equal(t, "ana@x.com", r.Client.Email, "original untouched")
}
