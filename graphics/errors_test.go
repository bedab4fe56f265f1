package graphics

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormat(t *testing.T) {
	err := fail(KindCall, "Present", ResultErrorOutOfDeviceMemory, []string{"first", "second"})
	s := err.Error()

	lines := strings.Split(s, "\n")
	assert.Equal(t, "Graphics Error", lines[0])
	assert.Equal(t, "[Error Code] 0xFFFFFFFE (4294967294)", lines[1])
	assert.Equal(t, "[Error String] VK_ERROR_OUT_OF_DEVICE_MEMORY", lines[2])
	assert.Equal(t, "[Description] a device memory allocation has failed", lines[3])
	assert.Contains(t, s, "\n[Error Info]\nfirst\nsecond\n\n")
	assert.Contains(t, s, "[Op] Present\n")
	assert.Contains(t, s, "[File] errors_test.go\n")
	assert.Regexp(t, `\[Line\] \d+$`, s)
}

func TestErrorFormatWithoutInfo(t *testing.T) {
	s := fail(KindCreation, "CreateBuffer", ResultErrorInitializationFailed, nil).Error()
	assert.NotContains(t, s, "[Error Info]")
	assert.True(t, strings.HasPrefix(s, "Graphics Error\n[Error Code] 0xFFFFFFFD (4294967293)"))
}

func TestInfoErrorOmitsCode(t *testing.T) {
	s := fail(KindInfo, "Draw", nil, []string{"vertex buffer too small"}).Error()
	assert.True(t, strings.HasPrefix(s, "Graphics Info Error\n"))
	assert.NotContains(t, s, "[Error Code]")
	assert.Contains(t, s, "vertex buffer too small")
}

func TestDeviceRemovedError(t *testing.T) {
	err := fail(KindDeviceRemoved, "Present", ResultErrorDeviceLost, nil)

	assert.True(t, errors.Is(err, ErrDeviceRemoved))
	assert.True(t, errors.Is(err, ResultErrorDeviceLost))
	assert.True(t, strings.HasPrefix(err.Error(), "Graphics Error [Device Removed] (VK_ERROR_DEVICE_LOST)\n"))

	var ge *Error
	require.True(t, errors.As(fmt.Errorf("frame: %w", err), &ge))
	assert.Equal(t, KindDeviceRemoved, ge.Kind)

	other := fail(KindCall, "Present", ResultErrorSurfaceLost, nil)
	assert.False(t, errors.Is(other, ErrDeviceRemoved))
}

func TestErrorCodeFromPlainError(t *testing.T) {
	err := fail(KindCreation, "LoadShaders", errors.New("reading shader: no such file"), nil)
	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, ResultErrorUnknown, ge.Code)
	assert.Equal(t, "reading shader: no such file", ge.Description())

	wrapped := fail(KindCall, "CreateBuffer", fmt.Errorf("arena: %w", ResultErrorOutOfHostMemory), nil)
	require.True(t, errors.As(wrapped, &ge))
	assert.Equal(t, ResultErrorOutOfHostMemory, ge.Code)
}

func TestResultStrings(t *testing.T) {
	assert.Equal(t, "VK_ERROR_DEVICE_LOST", ResultErrorDeviceLost.String())
	assert.Equal(t, "VkResult(-77)", Result(-77).String())
	assert.Equal(t, "unrecognized result code", Result(-77).Description())
	assert.True(t, ResultErrorDeviceLost.Failed())
	assert.False(t, ResultSuboptimal.Failed())
	assert.Equal(t, "device removed", KindDeviceRemoved.String())
}

func TestInfoManagerCheckpoint(t *testing.T) {
	q := NewInfoQueue()
	q.Push("before")
	m := NewInfoManager(q)
	assert.Empty(t, m.Messages())

	q.Push("a")
	q.Push("b")
	assert.Equal(t, []string{"a", "b"}, m.Messages())

	m.Set()
	assert.Empty(t, m.Messages())
	q.Push("c")
	assert.Equal(t, []string{"c"}, m.Messages())
}

func TestInfoQueueLimit(t *testing.T) {
	q := &InfoQueue{limit: 2}
	m := NewInfoManager(q)
	for i := 0; i < 5; i++ {
		q.Push(fmt.Sprint(i))
	}
	assert.Equal(t, uint64(5), q.Len())
	assert.Equal(t, []string{"3", "4"}, m.Messages())
	assert.Equal(t, []string{"4"}, q.Since(4))
	assert.Nil(t, q.Since(9))
}

func TestNilInfoManager(t *testing.T) {
	m := NewInfoManager(nil)
	assert.Nil(t, m)
	m.Set()
	assert.Nil(t, m.Messages())

	var q *InfoQueue
	q.Push("dropped")
	assert.Zero(t, q.Len())
}
