package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/laserctl/pkg/l1"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Discover collects the retained meta of controllers under the prefix
// of brokerURL for the duration of timeout.
func Discover(ctx context.Context, brokerURL string, timeout time.Duration) ([]l1.DeviceInfo, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	resCh := make(chan l1.DeviceInfo, 1)
	q.Sub("+/+/"+TopicMeta, Handler(func(topic string, payload []byte) {
		info, ok := ParseMeta(topic, payload)
		if !ok {
			return
		}
		select {
		case resCh <- info:
		case <-time.After(time.Second):
		}
	}))
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()

	if timeout == 0 {
		timeout = DefaultDiscoverTimeout
	}
	expire := time.After(timeout)
	var res []l1.DeviceInfo
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-expire:
			return res, nil
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

// ParseMeta decodes a meta message. Cleared meta (empty payload) means
// the controller is offline and is not reported.
func ParseMeta(topic string, payload []byte) (info l1.DeviceInfo, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != TopicMeta || len(payload) == 0 {
		return
	}
	info.Ref = l1.DeviceRef{Type: items[0], ID: items[1]}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("%s: invalid meta: %v", topic, err)
		return
	}
	return info, true
}
