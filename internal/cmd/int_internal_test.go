// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedUintValue_Set(t *testing.T) {
	ptr := func(n uint64) *uint64 {
		return &n
	}

	tests := []struct {
		name        string
		value       limitedUintValue
		input       string
		expected    *uint64
		expectedErr error
	}{
		{
			name:        "empty",
			expectedErr: strconv.ErrSyntax,
		},
		{
			name:        "not a number",
			input:       "dwdfwef",
			expectedErr: strconv.ErrSyntax,
		},
		{
			name:        "signed int",
			input:       "-1",
			expectedErr: strconv.ErrSyntax,
		},
		{
			name:        "longer than 64bit",
			input:       "184467440737095516151111111111111111111",
			expectedErr: strconv.ErrRange,
		},
		{
			name:  "zero",
			input: "0",
			value: limitedUintValue{
				Value: ptr(42),
			},
			expected: ptr(0),
		},
		{
			name:  "in range",
			input: "42",
			value: limitedUintValue{
				Value: ptr(0),
				min:   40,
				max:   44,
			},
			expected: ptr(42),
		},
		{
			name:  "is lower",
			input: "39",
			value: limitedUintValue{
				Value: ptr(0),
				min:   40,
				max:   44,
			},
			expected:    ptr(0),
			expectedErr: ErrValueOutOfRange,
		},
		{
			name:  "is above",
			input: "42",
			value: limitedUintValue{
				Value: ptr(0),
				min:   40,
				max:   41,
			},
			expected:    ptr(0),
			expectedErr: ErrValueOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.value.Set(tt.input)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expected, tt.value.Value)
		})
	}
}

func TestLimitedUintValue_String(t *testing.T) {
	assert.Equal(t, "0", (&limitedUintValue{}).String())

	value := uint64(17)
	assert.Equal(t, "17", (&limitedUintValue{Value: &value}).String())
}
