package address

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricParse = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addrlist_address_parse_total",
			Help: "Address lists parsed, by result: ok, undisclosed, error.",
		},
		[]string{
			"result",
		},
	)
	metricItem = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addrlist_address_item_total",
			Help: "Items parsed from address lists. Kind is mailbox, group or member (of a group). Result is ok or malformed.",
		},
		[]string{
			"kind",
			"result",
		},
	)
)
