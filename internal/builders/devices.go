package builders

var (
	browsersFamily          = dimensionFamily("browsers", "browser_name", "browser_name")
	operatingSystemsFamily  = dimensionFamily("operating_systems", "os_name", "os_name")
	deviceTypesFamily       = dimensionFamily("device_types", "device_type", "device_type")
	screenResolutionsFamily = dimensionFamily("screen_resolutions", "screen_resolution", "screen_resolution")
)

// DeviceBuilders returns the client environment families.
func DeviceBuilders() map[string]Builder {
	return familyBuilders(browsersFamily, operatingSystemsFamily, deviceTypesFamily, screenResolutionsFamily)
}
