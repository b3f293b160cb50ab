package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-5))
	assert.Equal(t, 25, NormalizeLimit(25))
	assert.Equal(t, MaxLimit, NormalizeLimit(1000))
}

func TestParamsOffsetAndInfo(t *testing.T) {
	p := Params{Page: 3, Limit: 10}
	assert.Equal(t, 20, p.Offset())

	info := p.Info(21)
	assert.Equal(t, 3, info.Page)
	assert.Equal(t, 10, info.Limit)
	assert.Equal(t, int64(21), info.Total)
	assert.Equal(t, 3, info.TotalPages)
}

func TestParamsNormalizeClampsPage(t *testing.T) {
	p := Params{Page: 0}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 0, Params{Page: -2}.Offset())
	assert.Equal(t, 0, Params{}.Info(0).TotalPages)
}
