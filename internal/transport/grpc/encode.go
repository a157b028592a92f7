package grpcserver

import (
	"fmt"
	"time"

	"github.com/milad/co2info/internal/domain"
	"github.com/milad/co2info/internal/service"
	"google.golang.org/protobuf/types/known/structpb"
)

// Wire layout.
//
// Summary: {name: string, readings: number, broken: number, unhealthy: number, average: number|null}
// Reading: {meter: string, time: RFC3339 string, value: number|null, raw: string, class: string}

func encodeSummaries(in []service.MeterSummary) *structpb.ListValue {
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(in))}
	for _, s := range in {
		avg := structpb.NewNullValue()
		if s.HasAverage {
			avg = structpb.NewNumberValue(s.Average)
		}
		out.Values = append(out.Values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":      structpb.NewStringValue(s.Name),
			"readings":  structpb.NewNumberValue(float64(s.Readings)),
			"broken":    structpb.NewNumberValue(float64(s.Broken)),
			"unhealthy": structpb.NewNumberValue(float64(s.Unhealthy)),
			"average":   avg,
		}}))
	}
	return out
}

func encodeReadings(in []service.MeterReading) *structpb.ListValue {
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(in))}
	for _, r := range in {
		v := structpb.NewNullValue()
		if r.HasValue {
			v = structpb.NewNumberValue(r.Value)
		}
		out.Values = append(out.Values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"meter": structpb.NewStringValue(r.Meter),
			"time":  structpb.NewStringValue(r.Time.UTC().Format(time.RFC3339)),
			"value": v,
			"raw":   structpb.NewStringValue(r.Raw),
			"class": structpb.NewStringValue(r.Class.String()),
		}}))
	}
	return out
}

func decodeSummaries(in *structpb.ListValue) ([]service.MeterSummary, error) {
	out := make([]service.MeterSummary, 0, len(in.GetValues()))
	for i, v := range in.GetValues() {
		st := v.GetStructValue()
		if st == nil {
			return nil, fmt.Errorf("summary %d: not a struct", i)
		}
		s := service.MeterSummary{
			Name:      stringField(st, "name"),
			Readings:  int(numberField(st, "readings")),
			Broken:    int(numberField(st, "broken")),
			Unhealthy: int(numberField(st, "unhealthy")),
		}
		if avg, ok := st.GetFields()["average"].GetKind().(*structpb.Value_NumberValue); ok {
			s.Average, s.HasAverage = avg.NumberValue, true
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeReadings(in *structpb.ListValue) ([]service.MeterReading, error) {
	out := make([]service.MeterReading, 0, len(in.GetValues()))
	for i, v := range in.GetValues() {
		st := v.GetStructValue()
		if st == nil {
			return nil, fmt.Errorf("reading %d: not a struct", i)
		}
		ts, err := time.Parse(time.RFC3339, stringField(st, "time"))
		if err != nil {
			return nil, fmt.Errorf("reading %d: %w", i, err)
		}
		class, err := domain.ParseClass(stringField(st, "class"))
		if err != nil {
			return nil, fmt.Errorf("reading %d: %w", i, err)
		}
		r := service.MeterReading{
			Meter: stringField(st, "meter"),
			Time:  ts.UTC(),
			Raw:   stringField(st, "raw"),
			Class: class,
		}
		if nv, ok := st.GetFields()["value"].GetKind().(*structpb.Value_NumberValue); ok {
			r.Value, r.HasValue = nv.NumberValue, true
		}
		out = append(out, r)
	}
	return out, nil
}

func stringField(st *structpb.Struct, key string) string {
	return st.GetFields()[key].GetStringValue()
}

func numberField(st *structpb.Struct, key string) float64 {
	return st.GetFields()[key].GetNumberValue()
}
