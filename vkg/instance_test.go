package vkg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/celer/hw3d/graphics"
	vk "github.com/vulkan-go/vulkan"
)

func TestDebugSeverity(t *testing.T) {
	assert.Equal(t, "ERROR", debugSeverity(vk.DebugReportFlags(vk.DebugReportErrorBit|vk.DebugReportWarningBit)))
	assert.Equal(t, "WARNING", debugSeverity(vk.DebugReportFlags(vk.DebugReportWarningBit)))
	assert.Equal(t, "INFORMATION", debugSeverity(vk.DebugReportFlags(vk.DebugReportInformationBit)))
}

func TestInfoQueueCallback(t *testing.T) {
	q := graphics.NewInfoQueue()
	m := graphics.NewInfoManager(q)
	cb := InfoQueueCallback(q, nil)

	ret := cb(vk.DebugReportFlags(vk.DebugReportErrorBit), vk.DebugReportObjectTypeBuffer,
		0, 0, 42, "Validation", "vkCmdDraw: no pipeline bound", nil)
	assert.Equal(t, vk.Bool32(vk.False), ret, "the call is never aborted")
	assert.Equal(t, []string{"ERROR: [Validation] Code 42 : vkCmdDraw: no pipeline bound"}, m.Messages())
}

func TestQueueFamilyFilter(t *testing.T) {
	families := QueueFamilySlice{
		{Index: 0, VKQueueFamilyProperties: vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(vk.QueueTransferBit)}},
		{Index: 1, VKQueueFamilyProperties: vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit)}},
	}
	g := families.FilterGraphics()
	if assert.Len(t, g, 1) {
		assert.Equal(t, 1, g[0].Index)
		assert.Equal(t, "{ Index: 1 Graphics: true Transfer: true }", g[0].String())
	}
}
