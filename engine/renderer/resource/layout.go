package resource

// Layout is the access state an image subresource is prepared for.
type Layout uint8

const (
	LayoutUndefined Layout = iota
	LayoutGeneral
	LayoutColorAttachment
	LayoutTransferSrc
	LayoutTransferDst
	LayoutShaderReadOnly
	LayoutPresentSrc
)

func (l Layout) String() string {
	switch l {
	case LayoutUndefined:
		return "undefined"
	case LayoutGeneral:
		return "general"
	case LayoutColorAttachment:
		return "color-attachment"
	case LayoutTransferSrc:
		return "transfer-src"
	case LayoutTransferDst:
		return "transfer-dst"
	case LayoutShaderReadOnly:
		return "shader-read-only"
	case LayoutPresentSrc:
		return "present-src"
	default:
		return "unknown"
	}
}

// Stage is a set of pipeline stages a barrier waits on or blocks.
type Stage uint32

const (
	StageTopOfPipe Stage = 1 << iota
	StageTransfer
	StageVertexShader
	StageFragmentShader
	StageColorAttachmentOutput
	StageBottomOfPipe
	StageAllCommands
)

// Access is a set of memory access types made visible or available by a barrier.
type Access uint32

const AccessNone Access = 0

const (
	AccessTransferRead Access = 1 << iota
	AccessTransferWrite
	AccessShaderRead
	AccessColorAttachmentRead
	AccessColorAttachmentWrite
	AccessMemoryRead
	AccessMemoryWrite
)

// AccessForLayout returns the accesses a subresource in layout l is used with.
// Barriers use it as the source mask of the old layout and the destination
// mask of the new one.
func AccessForLayout(l Layout) Access {
	switch l {
	case LayoutTransferSrc:
		return AccessTransferRead
	case LayoutTransferDst:
		return AccessTransferWrite
	case LayoutShaderReadOnly:
		return AccessShaderRead
	case LayoutColorAttachment:
		return AccessColorAttachmentRead | AccessColorAttachmentWrite
	case LayoutGeneral:
		return AccessMemoryRead | AccessMemoryWrite
	case LayoutPresentSrc:
		return AccessMemoryRead
	default:
		return AccessNone
	}
}

// Usage is the set of ways an image is going to be used by the device.
type Usage uint32

const (
	UsageTransferSrc Usage = 1 << iota
	UsageTransferDst
	UsageSampled
	UsageStorage
	UsageColorAttachment
)

func (u Usage) Has(flags Usage) bool {
	return u&flags == flags
}
