package provider

// Supported streaming platforms.
const (
	Twitch  = "twitch"
	Kick    = "kick"
	VKVideo = "vkvideo"
	Trovo   = "trovo"
)

var all = map[string]struct{}{
	Twitch:  {},
	Kick:    {},
	VKVideo: {},
	Trovo:   {},
}

func Valid(name string) bool {
	_, ok := all[name]
	return ok
}
