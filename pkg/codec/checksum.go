package codec

// checksumModulo bounds the running GSE2.0 checksum to eight digits
const checksumModulo = 100000000

// Checksum computes the GSE2.0 CHK2 checksum of raw (undifferenced) samples
func Checksum(samples []int32) int64 {
	var sum int64
	for _, s := range samples {
		v := int64(s)
		if v >= checksumModulo || v <= -checksumModulo {
			v %= checksumModulo
		}
		sum += v
		if sum >= checksumModulo || sum <= -checksumModulo {
			sum %= checksumModulo
		}
	}
	if sum < 0 {
		sum = -sum
	}
	return sum
}
