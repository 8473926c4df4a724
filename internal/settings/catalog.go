package settings

func intPtr(v int) *int { return &v }

var cameras = []Camera{
	{Model: "Azure Kinect DK", Resolution: "640 × 576"},
	{Model: "Azure Kinect DK", Resolution: "320 × 288"},
	{Model: "Azure Kinect DK", Resolution: "1024 × 1024"},
	{Model: "Intel RealSense", Resolution: "1280 × 720", Version: intPtr(415)},
	{Model: "Intel RealSense", Resolution: "848 × 480", Version: intPtr(435)},
	{Model: "Kinect", Resolution: "512 × 424", Version: intPtr(2)},
}

var backgroundSources = []BackgroundSource{
	{Name: "None", Path: ""},
	{Name: "Grid", Path: "assets/backgrounds/grid.png"},
	{Name: "Map", Path: "assets/backgrounds/map.jpg"},
	{Name: "Terrain", Path: "assets/backgrounds/terrain.jpg"},
	{Name: "Gradient", Path: "assets/backgrounds/gradient.png"},
}

// Cameras returns the catalog of selectable devices.
func Cameras() []Camera {
	out := make([]Camera, len(cameras))
	for i, c := range cameras {
		out[i] = c.Clone()
	}
	return out
}

// BackgroundSources returns the static background image catalog.
func BackgroundSources() []BackgroundSource {
	return CloneSlice(backgroundSources)
}
