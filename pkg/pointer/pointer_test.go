// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/libris/pkg/pointer"
)

func TestVal(t *testing.T) {
	var missing *string
	assert.Equal(t, "", pointer.Val(missing))

	synopsis := "Bentinho e Capitu."
	assert.Equal(t, "Bentinho e Capitu.", pointer.Val(&synopsis))

	var edition *int
	assert.Zero(t, pointer.Val(edition))
}
