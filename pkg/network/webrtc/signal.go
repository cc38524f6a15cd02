package webrtc

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pion/webrtc/v3"
)

const (
	SignalOffer     = "offer"
	SignalAnswer    = "answer"
	SignalCandidate = "candidate"
)

// Signal is a negotiation message in the format of the simple-peer library.
type Signal struct {
	Type      string                   `json:"type"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
}

func sdpSignal(d webrtc.SessionDescription) Signal {
	return Signal{Type: d.Type.String(), SDP: d.SDP}
}

func candidateSignal(c webrtc.ICECandidateInit) Signal {
	return Signal{Type: SignalCandidate, Candidate: &c}
}

func (s Signal) description() webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.NewSDPType(s.Type), SDP: s.SDP}
}

func EncodeSignal(s Signal) ([]byte, error) { return json.Marshal(s) }

func DecodeSignal(data []byte) (s Signal, err error) {
	if err = json.Unmarshal(data, &s); err != nil {
		return
	}
	switch s.Type {
	case SignalOffer, SignalAnswer:
		if s.SDP == "" {
			err = fmt.Errorf("%v without sdp", s.Type)
		}
	case SignalCandidate:
		if s.Candidate == nil {
			err = fmt.Errorf("empty candidate")
		}
	case "":
		err = fmt.Errorf("no signal type")
	}
	return
}
