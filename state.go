package shaderscene

// State is a snapshot of what the hosting view shows.
type State struct {
	// Error is the last error message; empty after a successful render.
	Error string `json:"error,omitempty"`

	// Loading is true while a scene request is in flight.
	Loading bool `json:"loading"`

	// VertexShader and FragmentShader are the sources of the last scene
	// that rendered successfully.
	VertexShader   string `json:"vertex_shader,omitempty"`
	FragmentShader string `json:"fragment_shader,omitempty"`

	// Running reports whether a session is currently rendering.
	Running bool `json:"running"`

	// Frames is the number of frames rendered by the current session.
	Frames uint64 `json:"frames"`

	// Generation counts sessions started by the controller.
	Generation uint64 `json:"generation"`

	// LiveResources is the number of GPU objects currently allocated.
	LiveResources int `json:"live_resources"`
}
