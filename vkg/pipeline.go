package vkg

import (
	lru "github.com/hashicorp/golang-lru/v2"
	vk "github.com/vulkan-go/vulkan"
)

type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	pipelineCacheCreate := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	var pipelineCache vk.PipelineCache
	if err := vkError(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache)); err != nil {
		return nil, err
	}
	return &PipelineCache{Device: d, VKPipelineCache: pipelineCache}, nil
}

func (p *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(p.Device.VKDevice, p.VKPipelineCache, nil)
}

type GraphicsPipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
}

func (p *GraphicsPipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
}

func (d *Device) CreateGraphicsPipeline(pc *PipelineCache, config *GraphicsPipelineConfig) (*GraphicsPipeline, error) {
	pipelines := make([]vk.Pipeline, 1)
	info := []vk.GraphicsPipelineCreateInfo{config.VKGraphicsPipelineCreateInfo()}
	if err := vkError(vk.CreateGraphicsPipelines(d.VKDevice, pc.VKPipelineCache, 1, info, nil, pipelines)); err != nil {
		return nil, err
	}
	return &GraphicsPipeline{Device: d, VKPipeline: pipelines[0]}, nil
}

// PipelineSet keeps the most recently used graphics pipelines keyed by a
// hash of their state. Evicted pipelines are handed to release, which must
// not destroy them while a frame that used them may still be in flight.
type PipelineSet struct {
	cache *lru.Cache[uint64, *GraphicsPipeline]
}

func NewPipelineSet(size int, release func(p *GraphicsPipeline)) (*PipelineSet, error) {
	c, err := lru.NewWithEvict[uint64, *GraphicsPipeline](size, func(_ uint64, p *GraphicsPipeline) {
		release(p)
	})
	if err != nil {
		return nil, err
	}
	return &PipelineSet{cache: c}, nil
}

// Get returns the pipeline for key, calling create on a miss.
func (s *PipelineSet) Get(key uint64, create func() (*GraphicsPipeline, error)) (*GraphicsPipeline, error) {
	if p, ok := s.cache.Get(key); ok {
		return p, nil
	}
	p, err := create()
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, p)
	return p, nil
}

func (s *PipelineSet) Len() int {
	return s.cache.Len()
}

// Purge releases every pipeline.
func (s *PipelineSet) Purge() {
	s.cache.Purge()
}
