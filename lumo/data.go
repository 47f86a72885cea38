package lumo

// DataBlock carries the decoded intensity stream.
type DataBlock struct {
	// Intensity is the channel-major ChannelCount x FrameCount matrix.
	// Row c occupies Intensity[c*FrameCount : (c+1)*FrameCount].
	Intensity []float32

	ChannelCount int
	FrameCount   int

	// FilledFrames is the number of frames the chunk stream actually
	// covered. When it falls short of FrameCount the trailing columns of
	// Intensity are zero.
	FilledFrames int

	FrameRate float64 // frames per second
}

// At returns the intensity of one channel at one frame.
func (d *DataBlock) At(channel, frame int) float32 {
	return d.Intensity[channel*d.FrameCount+frame]
}

// Channel returns the frame series of one channel. The returned slice
// aliases the matrix and must not be modified.
func (d *DataBlock) Channel(channel int) []float32 {
	return d.Intensity[channel*d.FrameCount : (channel+1)*d.FrameCount]
}
