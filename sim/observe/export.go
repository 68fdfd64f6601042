package observe

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// WriteText gathers every metric family from g and writes it to w in the
// Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteTextFile is WriteText into a freshly truncated file.
func WriteTextFile(path string, g prometheus.Gatherer) (err error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	w := bufio.NewWriter(file)
	if err := WriteText(w, g); err != nil {
		return err
	}
	return w.Flush()
}

// GaugeValue returns the value of the gauge in family name whose labels
// include all of want, and whether one was found.
func GaugeValue(g prometheus.Gatherer, name string, want map[string]string) (float64, bool, error) {
	families, err := g.Gather()
	if err != nil {
		return 0, false, fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if mf.GetName() != name || mf.GetType() != dto.MetricType_GAUGE {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), want) {
				return m.GetGauge().GetValue(), true, nil
			}
		}
	}
	return 0, false, nil
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
