package relay

import (
	"encoding/json"
	"net"
)

// UDPSender delivers relay datagrams over a fresh UDP socket per send. The
// outbound payload is a single-pair JSON object keyed by the sender's id,
// which is what reference clients decode.
type UDPSender struct{}

func (UDPSender) Send(addr *net.UDPAddr, senderID, message string) error {
	data, err := json.Marshal(map[string]string{senderID: message})
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write(data)
	return err
}
