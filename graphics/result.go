package graphics

import "fmt"

// Result is a driver result code. Values follow the VkResult numbering so
// the Vulkan backend passes its codes through unchanged; negative values are
// failures.
type Result int32

const (
	ResultSuccess                   Result = 0
	ResultNotReady                  Result = 1
	ResultTimeout                   Result = 2
	ResultIncomplete                Result = 5
	ResultErrorOutOfHostMemory      Result = -1
	ResultErrorOutOfDeviceMemory    Result = -2
	ResultErrorInitializationFailed Result = -3
	ResultErrorDeviceLost           Result = -4
	ResultErrorMemoryMapFailed      Result = -5
	ResultErrorLayerNotPresent      Result = -6
	ResultErrorExtensionNotPresent  Result = -7
	ResultErrorFeatureNotPresent    Result = -8
	ResultErrorIncompatibleDriver   Result = -9
	ResultErrorTooManyObjects       Result = -10
	ResultErrorFormatNotSupported   Result = -11
	ResultErrorUnknown              Result = -13
	ResultErrorSurfaceLost          Result = -1000000000
	ResultErrorNativeWindowInUse    Result = -1000000001
	ResultSuboptimal                Result = 1000001003
	ResultErrorOutOfDate            Result = -1000001004
	ResultErrorValidationFailed     Result = -1000011001
	ResultErrorInvalidShader        Result = -1000012000
)

var resultNames = map[Result][2]string{
	ResultSuccess:                   {"VK_SUCCESS", "the operation completed successfully"},
	ResultNotReady:                  {"VK_NOT_READY", "a fence or query has not yet completed"},
	ResultTimeout:                   {"VK_TIMEOUT", "a wait operation has not completed in the specified time"},
	ResultIncomplete:                {"VK_INCOMPLETE", "a return array was too small for the result"},
	ResultErrorOutOfHostMemory:      {"VK_ERROR_OUT_OF_HOST_MEMORY", "a host memory allocation has failed"},
	ResultErrorOutOfDeviceMemory:    {"VK_ERROR_OUT_OF_DEVICE_MEMORY", "a device memory allocation has failed"},
	ResultErrorInitializationFailed: {"VK_ERROR_INITIALIZATION_FAILED", "initialization of an object could not be completed"},
	ResultErrorDeviceLost:           {"VK_ERROR_DEVICE_LOST", "the logical or physical device has been lost"},
	ResultErrorMemoryMapFailed:      {"VK_ERROR_MEMORY_MAP_FAILED", "mapping of a memory object has failed"},
	ResultErrorLayerNotPresent:      {"VK_ERROR_LAYER_NOT_PRESENT", "a requested layer is not present or could not be loaded"},
	ResultErrorExtensionNotPresent:  {"VK_ERROR_EXTENSION_NOT_PRESENT", "a requested extension is not supported"},
	ResultErrorFeatureNotPresent:    {"VK_ERROR_FEATURE_NOT_PRESENT", "a requested feature is not supported"},
	ResultErrorIncompatibleDriver:   {"VK_ERROR_INCOMPATIBLE_DRIVER", "the requested API version is not supported by the driver"},
	ResultErrorTooManyObjects:       {"VK_ERROR_TOO_MANY_OBJECTS", "too many objects of the type have already been created"},
	ResultErrorFormatNotSupported:   {"VK_ERROR_FORMAT_NOT_SUPPORTED", "a requested format is not supported on this device"},
	ResultErrorUnknown:              {"VK_ERROR_UNKNOWN", "an unknown error has occurred"},
	ResultErrorSurfaceLost:          {"VK_ERROR_SURFACE_LOST_KHR", "the window surface is no longer available"},
	ResultErrorNativeWindowInUse:    {"VK_ERROR_NATIVE_WINDOW_IN_USE_KHR", "the window is already in use by another API"},
	ResultSuboptimal:                {"VK_SUBOPTIMAL_KHR", "the swap chain no longer matches the surface exactly"},
	ResultErrorOutOfDate:            {"VK_ERROR_OUT_OF_DATE_KHR", "the surface has changed and the swap chain is no longer compatible"},
	ResultErrorValidationFailed:     {"VK_ERROR_VALIDATION_FAILED_EXT", "a validation layer rejected the call"},
	ResultErrorInvalidShader:        {"VK_ERROR_INVALID_SHADER_NV", "one or more shaders failed to compile or link"},
}

// Failed reports whether r is an error code.
func (r Result) Failed() bool {
	return r < 0
}

func (r Result) String() string {
	if n, ok := resultNames[r]; ok {
		return n[0]
	}
	return fmt.Sprintf("VkResult(%d)", int32(r))
}

// Description returns a human readable explanation of the code.
func (r Result) Description() string {
	if n, ok := resultNames[r]; ok {
		return n[1]
	}
	return "unrecognized result code"
}

func (r Result) Error() string {
	return r.String() + ": " + r.Description()
}
