// Package codec reads and writes single GSE2.0 waveform records.
//
// A record is a self-contained block of lines:
//
//	WID2 2005/08/31 02:33:49.450 RJOB  Z      Z   CM6    12000  200.000000  9.49e-02   1.000 Le-3D  -1.0 -0.0
//	DAT2
//	<payload lines>
//	CHK2 12345678
//
// # WID2 Header
//
// The WID2 line has fixed columns. Each column maps to a native field name:
//   - d_year, d_mon, d_day: date (yyyy/mm/dd)
//   - t_hour, t_min, t_sec: time (hh:mm:ss.sss)
//   - station (a5), channel (a3), auxid (a4), datatype (a3)
//   - n_samps (i8), samp_rate (f11.6), calib (e10.2), calper (f7.3)
//   - instype (a6), hang (f5.1), vang (f4.1)
//
// Blank numeric columns decode as absent keys in the Header map, and absent
// keys encode as blank columns.
//
// # Payload
//
// CM6 payloads hold second differences of the samples packed into a 64
// character alphabet, six bits per character. INT payloads hold plain
// decimal integers.
//
// # CHK2 Checksum
//
// The checksum is a running sum of the raw samples kept within eight digits
// (modulo 100000000), reported as an absolute value. Decode always parses
// the CHK2 line and verifies it only when asked to.
//
// # Usage
//
//	c := codec.NewRecordCodec()
//	r := bufio.NewReader(f)
//	header, samples, err := c.Decode(r, true)
//	if err != nil {
//	    return err
//	}
//
//	var buf bytes.Buffer
//	err = c.Encode(&buf, header, samples, codec.EncodeOptions{DataType: codec.DataTypeCM6})
//
// RecordCodec holds no state and is safe for concurrent use.
package codec
