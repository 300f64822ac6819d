package telemetry

import (
	"bufio"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/gpumon/internal/logger"
)

// SummaryQuery is the --query-gpu field list whose output ParseSummary reads.
const SummaryQuery = "index,name,temperature.gpu,utilization.gpu,memory.used,memory.total,power.draw"

// SummaryFieldCount is the number of leading fields used from each line.
const SummaryFieldCount = 7

// Field positions within a summary line.
const (
	fieldID = iota
	fieldName
	fieldTemperature
	fieldUtilization
	fieldMemoryUsed
	fieldMemoryTotal
	fieldPowerDraw
)

// Parser turns summary text into a Sample. It never fails: malformed lines
// are dropped and logged at debug level.
type Parser struct {
	log logger.Logger
}

// NewParser creates a parser that reports dropped lines to log.
func NewParser(log logger.Logger) *Parser {
	if log == nil {
		log = logger.Noop()
	}
	return &Parser{log: log}
}

// ParseSummary parses nvidia-smi summary output with a silent parser.
func ParseSummary(output string, capturedAt time.Time) *Sample {
	return NewParser(nil).Parse(output, capturedAt)
}

// Parse parses comma-separated summary output, one device per line:
//
//	index, name, temperature.gpu, utilization.gpu, memory.used, memory.total, power.draw
//
// Example: "0, NVIDIA GeForce RTX 3080, 65, 45, 2048, 10240, 220.50"
func (p *Parser) Parse(output string, capturedAt time.Time) *Sample {
	sample := NewSample(capturedAt)

	scanner := bufio.NewScanner(strings.NewReader(output))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, ok := parseLine(line)
		if !ok {
			p.log.Debug("dropping malformed summary line %d: %q", lineNo, line)
			continue
		}
		sample.Put(rec)
	}
	if err := scanner.Err(); err != nil {
		// Keep whatever parsed before the scanner gave up.
		p.log.Debug("summary scan stopped after line %d: %v", lineNo, err)
	}

	return sample
}

// parseLine converts one summary line. Lines with too few fields or an empty
// id are rejected; extra trailing fields are ignored.
func parseLine(line string) (DeviceRecord, bool) {
	fields := strings.Split(line, ",")
	if len(fields) < SummaryFieldCount {
		return DeviceRecord{}, false
	}
	fields = fields[:SummaryFieldCount]
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if fields[fieldID] == "" {
		return DeviceRecord{}, false
	}

	return DeviceRecord{
		ID:             fields[fieldID],
		Name:           fields[fieldName],
		TemperatureC:   OptionalInt(fields[fieldTemperature]),
		UtilizationPct: Percent(fields[fieldUtilization]),
		MemoryUsedMB:   RequiredInt(fields[fieldMemoryUsed]),
		MemoryTotalMB:  RequiredInt(fields[fieldMemoryTotal]),
		PowerDrawW:     OptionalFloat(fields[fieldPowerDraw]),
	}, true
}

// FormatSummaryLine renders a record in the summary line format, writing
// "[N/A]" for absent optional fields. Parsing the result yields rec again as
// long as the name contains no comma.
func FormatSummaryLine(rec DeviceRecord) string {
	temp := "[N/A]"
	if rec.TemperatureC != nil {
		temp = strconv.Itoa(*rec.TemperatureC)
	}
	power := "[N/A]"
	if rec.PowerDrawW != nil {
		power = strconv.FormatFloat(*rec.PowerDrawW, 'f', -1, 64)
	}

	return strings.Join([]string{
		rec.ID,
		rec.Name,
		temp,
		strconv.Itoa(rec.UtilizationPct),
		strconv.Itoa(rec.MemoryUsedMB),
		strconv.Itoa(rec.MemoryTotalMB),
		power,
	}, ", ")
}

// FormatSummary renders every record of a sample, one line each.
func FormatSummary(s *Sample) string {
	var b strings.Builder
	for _, rec := range s.Records() {
		b.WriteString(FormatSummaryLine(rec))
		b.WriteString("\n")
	}
	return b.String()
}
