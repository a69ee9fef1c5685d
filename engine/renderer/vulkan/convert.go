package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lovevk/engine/renderer/resource"
)

func vulkanLayout(l resource.Layout) vk.ImageLayout {
	switch l {
	case resource.LayoutGeneral:
		return vk.ImageLayoutGeneral
	case resource.LayoutColorAttachment:
		return vk.ImageLayoutColorAttachmentOptimal
	case resource.LayoutTransferSrc:
		return vk.ImageLayoutTransferSrcOptimal
	case resource.LayoutTransferDst:
		return vk.ImageLayoutTransferDstOptimal
	case resource.LayoutShaderReadOnly:
		return vk.ImageLayoutShaderReadOnlyOptimal
	case resource.LayoutPresentSrc:
		return vk.ImageLayoutPresentSrc
	default:
		return vk.ImageLayoutUndefined
	}
}

func vulkanFormat(f resource.Format) vk.Format {
	switch f {
	case resource.FormatR8G8SRGB:
		return vk.FormatR8g8Srgb
	case resource.FormatR8G8B8SRGB:
		return vk.FormatR8g8b8Srgb
	case resource.FormatR8G8B8A8SRGB:
		return vk.FormatR8g8b8a8Srgb
	default:
		return vk.FormatUndefined
	}
}

var stageBits = []struct {
	stage resource.Stage
	bit   vk.PipelineStageFlagBits
}{
	{resource.StageTopOfPipe, vk.PipelineStageTopOfPipeBit},
	{resource.StageTransfer, vk.PipelineStageTransferBit},
	{resource.StageVertexShader, vk.PipelineStageVertexShaderBit},
	{resource.StageFragmentShader, vk.PipelineStageFragmentShaderBit},
	{resource.StageColorAttachmentOutput, vk.PipelineStageColorAttachmentOutputBit},
	{resource.StageBottomOfPipe, vk.PipelineStageBottomOfPipeBit},
	{resource.StageAllCommands, vk.PipelineStageAllCommandsBit},
}

func vulkanStages(s resource.Stage) vk.PipelineStageFlags {
	var flags vk.PipelineStageFlags
	for _, b := range stageBits {
		if s&b.stage != 0 {
			flags |= vk.PipelineStageFlags(b.bit)
		}
	}
	return flags
}

var accessBits = []struct {
	access resource.Access
	bit    vk.AccessFlagBits
}{
	{resource.AccessTransferRead, vk.AccessTransferReadBit},
	{resource.AccessTransferWrite, vk.AccessTransferWriteBit},
	{resource.AccessShaderRead, vk.AccessShaderReadBit},
	{resource.AccessColorAttachmentRead, vk.AccessColorAttachmentReadBit},
	{resource.AccessColorAttachmentWrite, vk.AccessColorAttachmentWriteBit},
	{resource.AccessMemoryRead, vk.AccessMemoryReadBit},
	{resource.AccessMemoryWrite, vk.AccessMemoryWriteBit},
}

func vulkanAccess(a resource.Access) vk.AccessFlags {
	var flags vk.AccessFlags
	for _, b := range accessBits {
		if a&b.access != 0 {
			flags |= vk.AccessFlags(b.bit)
		}
	}
	return flags
}

var usageBits = []struct {
	usage resource.Usage
	bit   vk.ImageUsageFlagBits
}{
	{resource.UsageTransferSrc, vk.ImageUsageTransferSrcBit},
	{resource.UsageTransferDst, vk.ImageUsageTransferDstBit},
	{resource.UsageSampled, vk.ImageUsageSampledBit},
	{resource.UsageStorage, vk.ImageUsageStorageBit},
	{resource.UsageColorAttachment, vk.ImageUsageColorAttachmentBit},
}

func vulkanUsage(u resource.Usage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlags
	for _, b := range usageBits {
		if u&b.usage != 0 {
			flags |= vk.ImageUsageFlags(b.bit)
		}
	}
	return flags
}
