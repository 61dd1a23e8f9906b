package transit

import (
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"

	"github.com/busontime/busontime/internal/models"
)

const gtfsRealtimeVersion = "2.0"

// FeedMessage expresses an arrival as a single-entity GTFS-Realtime trip
// update, with the arrival time anchored at now.
func FeedMessage(q Query, a models.BusArrival, now time.Time) *gtfs.FeedMessage {
	arrivalAt := now.Add(time.Duration(a.ArrivalSecs) * time.Second).Unix()

	update := &gtfs.TripUpdate{
		Trip: &gtfs.TripDescriptor{
			RouteId: proto.String(a.RouteID),
		},
		StopTimeUpdate: []*gtfs.TripUpdate_StopTimeUpdate{
			{
				StopId: proto.String(a.NodeID),
				Arrival: &gtfs.TripUpdate_StopTimeEvent{
					Time: proto.Int64(arrivalAt),
				},
			},
		},
		Timestamp: proto.Uint64(uint64(now.Unix())),
	}
	if a.VehicleNo != "" {
		update.Vehicle = &gtfs.VehicleDescriptor{
			Label: proto.String(a.VehicleNo),
		}
	}

	return &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
		Entity: []*gtfs.FeedEntity{
			{
				Id:         proto.String(q.Key()),
				TripUpdate: update,
			},
		},
	}
}

// MarshalFeed encodes an arrival as GTFS-Realtime protobuf bytes.
func MarshalFeed(q Query, a models.BusArrival, now time.Time) ([]byte, error) {
	data, err := proto.Marshal(FeedMessage(q, a, now))
	if err != nil {
		return nil, errors.Wrap(err, "encoding gtfs-rt feed")
	}
	return data, nil
}
