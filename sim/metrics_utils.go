// sim/metrics_utils.go
package sim

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// recordsHeader is the first line written by SaveRecords.
const recordsHeader = "id,class,node,arrival_date,wait,service_start_date,service_time,service_end_date,time_blocked,exit_date"

// SaveRecords writes one comma-separated line per record, in emission order.
func SaveRecords(records []DataRecord, fileName string) (err error) {
	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", fileName, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", fileName, closeErr)
		}
	}()

	writer := bufio.NewWriter(file)
	if _, err := fmt.Fprintln(writer, recordsHeader); err != nil {
		return fmt.Errorf("writing %s: %w", fileName, err)
	}
	for _, r := range records {
		_, err := fmt.Fprintf(writer, "%d,%d,%d,%g,%g,%g,%g,%g,%g,%g\n",
			r.IndividualID, r.Class, r.NodeID, r.ArrivalDate, r.Wait(), r.ServiceStartDate,
			r.ServiceTime, r.ServiceEndDate, r.Blocked(), r.ExitDate)
		if err != nil {
			return fmt.Errorf("writing %s: %w", fileName, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", fileName, err)
	}
	logrus.Debugf("wrote %d records to %s", len(records), fileName)
	return nil
}
