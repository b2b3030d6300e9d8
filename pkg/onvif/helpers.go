package onvif

import (
	"bytes"
	"encoding/xml"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FindTagValue - value of first tag with any namespace prefix, tag can be regexp:
// "Uri" => "<tt:Uri>", "Media.+?XAddr" => first XAddr inside Media section
func FindTagValue(b []byte, tag string) string {
	re := regexp.MustCompile(`(?s)<(?:\w+:)?` + tag + `\b[^>]*>([^<]+)`)
	m := re.FindSubmatch(b)
	if len(m) != 2 {
		return ""
	}
	return string(m[1])
}

// GetPath return path from service XAddr or default path if XAddr is empty or broken.
// Host from XAddr is ignored because cameras behind NAT often report local IP.
func GetPath(rawURL, defPath string) string {
	if rawURL = strings.TrimSpace(rawURL); rawURL == "" {
		return defPath
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return defPath
	}

	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}

	return u.Path
}

// UUID - generate something like 44302cbf-0d18-4feb-79b3-33b575263da3
func UUID() string {
	return uuid.NewString()
}

const discoveryTimeout = 3 * time.Second

func DiscoveryStreamingURLs() ([]string, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	msg := `<?xml version="1.0" ?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
	<s:Header xmlns:a="http://schemas.xmlsoap.org/ws/2004/08/addressing">
		<a:Action>http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe</a:Action>
		<a:MessageID>uuid:` + UUID() + `</a:MessageID>
		<a:To>urn:schemas-xmlsoap-org:ws:2005:04:discovery</a:To>
	</s:Header>
	<s:Body>
		<d:Probe xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery">
			<d:Types>tds:Device</d:Types>
			<d:Scopes>onvif://www.onvif.org/Profile/Streaming</d:Scopes>
		</d:Probe>
	</s:Body>
</s:Envelope>`

	addr := &net.UDPAddr{
		IP:   net.IP{239, 255, 255, 250},
		Port: 3702,
	}

	if _, err = conn.WriteTo([]byte(msg), addr); err != nil {
		return nil, err
	}

	if err = conn.SetReadDeadline(time.Now().Add(discoveryTimeout)); err != nil {
		return nil, err
	}

	var urls []string

	b := make([]byte, 8192)
	for {
		n, _, err := conn.ReadFrom(b)
		if err != nil {
			break
		}

		for _, rawURL := range ParseXAddrs(b[:n]) {
			if !contains(urls, rawURL) {
				urls = append(urls, rawURL)
			}
		}
	}

	return urls, nil
}

// ParseXAddrs return all addresses from ProbeMatch response. Some devices
// send space separated list (IPv4 and IPv6 addresses).
func ParseXAddrs(b []byte) []string {
	s := FindTagValue(b, "XAddrs")
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

func contains(items []string, item string) bool {
	for _, s := range items {
		if s == item {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return i
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
