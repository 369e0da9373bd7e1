package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/proto"
)

// labeledGatherer 给采集结果追加常量标签，已存在的同名标签保持不变.
type labeledGatherer struct {
	inner  prometheus.Gatherer
	labels map[string]string
}

func (g labeledGatherer) Gather() ([]*dto.MetricFamily, error) {
	families, err := g.inner.Gather()

	names := make([]string, 0, len(g.labels))
	for name := range g.labels {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			for _, name := range names {
				if hasLabel(m, name) {
					continue
				}

				m.Label = append(m.Label, &dto.LabelPair{
					Name:  proto.String(name),
					Value: proto.String(g.labels[name]),
				})
			}

			sort.Slice(m.Label, func(i, j int) bool { return m.Label[i].GetName() < m.Label[j].GetName() })
		}
	}

	return families, err
}

func hasLabel(m *dto.Metric, name string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return true
		}
	}

	return false
}
