package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/autonode/bls-cleanse/interfaces"
)

// validatorInformation mirrors the parts of hmyv2_getValidatorInformation the tool reads.
type validatorInformation struct {
	Validator struct {
		Address       string   `json:"address"`
		BLSPublicKeys []string `json:"bls-public-keys"`
	} `json:"validator"`
	Metrics *struct {
		ByBLSKey []blsKeyMetric `json:"by-bls-key"`
	} `json:"metrics"`
}

type blsKeyMetric struct {
	Key struct {
		BLSPublicKey string `json:"bls-public-key"`
		ShardID      uint32 `json:"shard-id"`
	} `json:"key"`
	EarnedReward reward `json:"earned-reward"`
}

// reward decodes an amount the node may encode as a JSON number of arbitrary
// size (including exponent notation) or as a quoted decimal string.
type reward struct {
	*big.Int
}

func (r *reward) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		r.Int = nil
		return nil
	}

	f, ok := new(big.Float).SetPrec(256).SetString(string(data))
	if !ok {
		return fmt.Errorf("invalid earned-reward %q", data)
	}
	if f.Sign() < 0 {
		return fmt.Errorf("negative earned-reward %q", data)
	}
	i, acc := f.Int(nil)
	if acc == big.Below {
		// fractional amounts round up so a positive reward is never read as zero
		i.Add(i, big.NewInt(1))
	}
	r.Int = i
	return nil
}

func (info *validatorInformation) toRecord() *interfaces.ValidatorRecord {
	record := &interfaces.ValidatorRecord{
		Address: info.Validator.Address,
		BLSKeys: make([]interfaces.BLSKeyID, 0, len(info.Validator.BLSPublicKeys)),
	}
	for _, k := range info.Validator.BLSPublicKeys {
		record.BLSKeys = append(record.BLSKeys, interfaces.BLSKeyID(k))
	}

	if info.Metrics != nil {
		record.Metrics = &interfaces.MetricsBlock{ByKey: make([]interfaces.KeyMetric, 0, len(info.Metrics.ByBLSKey))}
		for _, m := range info.Metrics.ByBLSKey {
			record.Metrics.ByKey = append(record.Metrics.ByKey, interfaces.KeyMetric{
				Key:          interfaces.BLSKeyID(m.Key.BLSPublicKey),
				ShardID:      m.Key.ShardID,
				EarnedReward: m.EarnedReward.Int,
			})
		}
	}
	return record
}

type nodeMetadata struct {
	BlocksPerEpoch uint64 `json:"blocks-per-epoch"`
	ShardID        uint32 `json:"shard-id"`
}

type latestHeader struct {
	BlockNumber uint64 `json:"blockNumber"`
	Epoch       uint64 `json:"epoch"`
	ShardID     uint32 `json:"shardID"`
}

type shardForBLS struct {
	ShardID *uint32 `json:"shard-id"`
}

func parseShardForBLS(output []byte) (uint32, error) {
	var res shardForBLS
	if err := json.Unmarshal(output, &res); err != nil {
		return 0, fmt.Errorf("could not decode shard-for-bls output: %w", err)
	}
	if res.ShardID == nil {
		return 0, fmt.Errorf("shard-for-bls output has no shard-id: %s", bytes.TrimSpace(output))
	}
	return *res.ShardID, nil
}
