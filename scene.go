package main

// RenderHandle identifies an entity's renderable in the external scene.
// Zero means "not attached".
type RenderHandle uint64

// Scene is the rendering collaborator. The simulation only ever attaches
// and detaches handles; mesh and material construction happen elsewhere.
type Scene interface {
	Attach(kind string) RenderHandle
	Detach(h RenderHandle)
}

// nullScene discards all handles. Used when no renderer is connected.
type nullScene struct{}

func (nullScene) Attach(string) RenderHandle { return 0 }
func (nullScene) Detach(RenderHandle)        {}

// TrackingScene counts live handles. The game loop uses it so the client
// can be told how many renderables exist; tests use it to verify that
// removed entities never leave a dangling renderable.
type TrackingScene struct {
	next RenderHandle
	live map[RenderHandle]string
}

// NewTrackingScene creates an empty tracking scene
func NewTrackingScene() *TrackingScene {
	return &TrackingScene{live: make(map[RenderHandle]string)}
}

// Attach registers a renderable and returns its handle
func (s *TrackingScene) Attach(kind string) RenderHandle {
	s.next++
	s.live[s.next] = kind
	return s.next
}

// Detach removes a renderable. Detaching an unknown handle is a no-op.
func (s *TrackingScene) Detach(h RenderHandle) {
	delete(s.live, h)
}

// LiveCount returns the number of attached renderables
func (s *TrackingScene) LiveCount() int {
	return len(s.live)
}
