// Package gse2 reads and writes GSE2 waveform containers.
//
// A container is a file holding zero or more concatenated WID2 records,
// possibly interleaved with other lines. Read scans the input line by line,
// hands every line starting with WID2 to a RecordCodec, maps the codec's
// native header fields onto trace.Trace and collects the traces in file
// order. Write does the inverse, one record per trace.
//
// Native and canonical names are related by FieldMap:
//
//	station       <-> station
//	sampling_rate <-> samp_rate
//	sample_count  <-> n_samps
//	channel       <-> channel
//	calibration   <-> calib
//
// The native fields listed in ExtensionFields (instype, datatype, vang,
// hang, auxid, calper) travel verbatim in Trace.Extensions.
//
// Reads fail on the first record that cannot be decoded or mapped, and no
// partial stream is returned. Writes flush each record as it is encoded, so
// a failed write leaves the records before the failing trace in place.
package gse2
