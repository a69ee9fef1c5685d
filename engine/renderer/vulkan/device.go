package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lovevk/engine/core"
)

// VulkanDevice is the instance, the selected physical device and a logical
// device with a single graphics queue used for uploads and frame submission.
type VulkanDevice struct {
	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device
	Allocator      *vk.AllocationCallbacks

	GraphicsQueueIndex uint32
	GraphicsQueue      vk.Queue

	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties

	Locks *VulkanLockPool

	debugCallback vk.DebugReportCallback
	validation    bool
}

// DeviceCreate loads Vulkan through procAddr (the loader entry point exposed by
// the platform layer) and creates the instance and the logical device.
func DeviceCreate(appName string, procAddr unsafe.Pointer, validation bool) (*VulkanDevice, error) {
	if procAddr == nil {
		return nil, fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return nil, err
	}

	d := &VulkanDevice{validation: validation, Locks: NewVulkanLockPool()}
	if err := d.createInstance(appName); err != nil {
		return nil, err
	}
	if err := d.selectPhysicalDevice(); err != nil {
		d.Destroy()
		return nil, err
	}
	if err := d.createLogicalDevice(); err != nil {
		d.Destroy()
		return nil, err
	}
	return d, nil
}

func (d *VulkanDevice) createInstance(appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("LoveVK"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := []string{}
	if runtime.GOOS == "darwin" {
		extensions = append(extensions, "VK_KHR_portability_enumeration", "VK_KHR_get_physical_device_properties2")
		createInfo.Flags |= 1
	}

	layers := []string{}
	if d.validation {
		if hasInstanceLayer("VK_LAYER_KHRONOS_validation") {
			layers = append(layers, "VK_LAYER_KHRONOS_validation")
			extensions = append(extensions, vk.ExtDebugReportExtensionName)
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("VK_LAYER_KHRONOS_validation not available, continuing without validation.")
			d.validation = false
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	if err := resultError(core.ErrDeviceAllocation, "vkCreateInstance", vk.CreateInstance(&createInfo, d.Allocator, &d.Instance)); err != nil {
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(d.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	if d.validation {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(d.Instance, &debugCreateInfo, d.Allocator, &dbg)); err != nil {
			core.LogWarn("vk.CreateDebugReportCallback failed with %s", err)
		} else {
			d.debugCallback = dbg
		}
	}
	return nil
}

func hasInstanceLayer(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success || count == 0 {
		return false
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return false
	}
	for i := range layers {
		layers[i].Deref()
		end := FindFirstZeroInByteArray(layers[i].LayerName[:])
		if string(layers[i].LayerName[:end]) == name {
			return true
		}
	}
	return false
}

// selectPhysicalDevice picks the first device with a graphics queue,
// preferring discrete GPUs.
func (d *VulkanDevice) selectPhysicalDevice() error {
	var count uint32
	if err := resultError(core.ErrDeviceAllocation, "vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(d.Instance, &count, nil)); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("no device supporting Vulkan found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := resultError(core.ErrDeviceAllocation, "vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(d.Instance, &count, devices)); err != nil {
		return err
	}

	found := false
	for _, candidate := range devices {
		queueIndex, ok := graphicsQueueIndex(candidate)
		if !ok {
			continue
		}
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(candidate, &props)
		props.Deref()

		if found && props.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
			continue
		}
		d.PhysicalDevice = candidate
		d.GraphicsQueueIndex = queueIndex
		d.Properties = props
		found = true
		if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			break
		}
	}
	if !found {
		return fmt.Errorf("no device with a graphics queue found")
	}

	vk.GetPhysicalDeviceMemoryProperties(d.PhysicalDevice, &d.Memory)
	d.Memory.Deref()

	end := FindFirstZeroInByteArray(d.Properties.DeviceName[:])
	core.LogInfo("Selected device: '%s'.", string(d.Properties.DeviceName[:end]))
	return nil
}

func graphicsQueueIndex(device vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)
	for i := range families {
		families[i].Deref()
		if families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

func (d *VulkanDevice) createLogicalDevice() error {
	core.LogInfo("Creating logical device...")

	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.GraphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	extensions := []string{}
	if hasDeviceExtension(d.PhysicalDevice, "VK_KHR_portability_subset") {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensions = append(extensions, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}
	if err := resultError(core.ErrDeviceAllocation, "vkCreateDevice", vk.CreateDevice(d.PhysicalDevice, &deviceCreateInfo, d.Allocator, &d.LogicalDevice)); err != nil {
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Logical device created.")

	var queue vk.Queue
	vk.GetDeviceQueue(d.LogicalDevice, d.GraphicsQueueIndex, 0, &queue)
	d.GraphicsQueue = queue
	core.LogInfo("Graphics queue obtained.")
	return nil
}

func hasDeviceExtension(device vk.PhysicalDevice, name string) bool {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success || count == 0 {
		return false
	}
	available := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		end := FindFirstZeroInByteArray(available[i].ExtensionName[:])
		if string(available[i].ExtensionName[:end]) == name {
			return true
		}
	}
	return false
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that has
// all of propertyFlags, or -1.
func (d *VulkanDevice) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) int32 {
	for i := uint32(0); i < d.Memory.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		d.Memory.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && d.Memory.MemoryTypes[i].PropertyFlags&propertyFlags == propertyFlags {
			return int32(i)
		}
	}
	return -1
}

func (d *VulkanDevice) WaitIdle() error {
	return resultError(core.ErrSubmission, "vkDeviceWaitIdle", vk.DeviceWaitIdle(d.LogicalDevice))
}

func (d *VulkanDevice) Destroy() {
	if d.LogicalDevice != nil {
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(d.LogicalDevice, d.Allocator)
		d.LogicalDevice = nil
		d.GraphicsQueue = nil
	}
	d.PhysicalDevice = nil

	if d.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(d.Instance, d.debugCallback, d.Allocator)
		d.debugCallback = vk.NullDebugReportCallback
	}
	if d.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(d.Instance, d.Allocator)
		d.Instance = nil
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
