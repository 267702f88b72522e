package gse2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/gse2/pkg/codec"
	"github.com/ssargent/gse2/pkg/trace"
)

func TestFieldMap_Names(t *testing.T) {
	pairs := map[string]string{
		trace.FieldStation:      codec.FieldStation,
		trace.FieldSamplingRate: codec.FieldSamplingRate,
		trace.FieldSampleCount:  codec.FieldSampleCount,
		trace.FieldChannel:      codec.FieldChannel,
		trace.FieldCalibration:  codec.FieldCalib,
	}
	require.Len(t, FieldMap, len(pairs))

	for _, m := range FieldMap {
		assert.Equal(t, pairs[m.Canonical], m.Native)

		back, ok := canonicalName(m.Native)
		assert.True(t, ok)
		assert.Equal(t, m.Canonical, back)
	}

	_, ok := canonicalName(codec.FieldInstType)
	assert.False(t, ok)
}

func TestMissingField_NamesCanonicalField(t *testing.T) {
	err := missingField(codec.FieldCalib)
	assert.ErrorIs(t, err, ErrFieldMapping)
	assert.Equal(t, "required header field missing: calib (calibration)", err.Error())

	err = missingField(codec.FieldYear)
	assert.ErrorIs(t, err, ErrFieldMapping)
	assert.NotContains(t, err.Error(), "(")
}

func TestStartTime_Decomposition(t *testing.T) {
	start := time.Date(1999, 12, 31, 23, 59, 7, 123456000, time.UTC)

	h := codec.Header{}
	require.NoError(t, putStartTime(h, start))
	assert.Equal(t, 1999, h[codec.FieldYear])
	assert.Equal(t, 12, h[codec.FieldMonth])
	assert.Equal(t, 31, h[codec.FieldDay])
	assert.Equal(t, 23, h[codec.FieldHour])
	assert.Equal(t, 59, h[codec.FieldMinute])
	assert.InDelta(t, 7.123456, h[codec.FieldSecond], 1e-9)

	got, err := startTime(h)
	require.NoError(t, err)
	assert.Equal(t, start, got)
}

func TestStartTime_NonUTCInput(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2010, 1, 1, 1, 30, 0, 0, zone)

	h := codec.Header{}
	require.NoError(t, putStartTime(h, start))
	assert.Equal(t, 2009, h[codec.FieldYear])
	assert.Equal(t, 23, h[codec.FieldHour])

	got, err := startTime(h)
	require.NoError(t, err)
	assert.True(t, start.Equal(got))
	assert.Equal(t, time.UTC, got.Location())
}

func TestStartTime_SecondsCarry(t *testing.T) {
	// the seconds column is an addend, values of 60 and above roll over
	h := codec.Header{
		codec.FieldYear:   2001,
		codec.FieldMonth:  1,
		codec.FieldDay:    1,
		codec.FieldHour:   0,
		codec.FieldMinute: 0,
		codec.FieldSecond: 60.5,
	}
	got, err := startTime(h)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2001, 1, 1, 0, 1, 0, 500000000, time.UTC), got)
}

func TestPutStartTime_YearOutOfRange(t *testing.T) {
	for _, year := range []int{-1, 10000} {
		err := putStartTime(codec.Header{}, time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, ErrTimestamp)
	}
}

func TestHeaderFromTrace_Omission(t *testing.T) {
	tr := trace.New()
	tr.SampleCount = 0
	tr.Extensions[codec.FieldHAng] = nil
	tr.Extensions[codec.FieldVAng] = 45
	tr.Extensions["network"] = "XX"

	h := headerFromTrace(tr)
	assert.Equal(t, codec.Header{
		codec.FieldSampleCount: 0,
		codec.FieldVAng:        45.0,
	}, h)
}

func TestTraceFromHeader_Extensions(t *testing.T) {
	h := fullNativeHeader()
	h[codec.FieldInstType] = "STS-2"
	h[codec.FieldHAng] = 12.5
	h["unknown"] = "ignored"

	tr, err := traceFromHeader(h)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		codec.FieldInstType: "STS-2",
		codec.FieldHAng:     12.5,
	}, tr.Extensions)
}
