package gsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestMessage_MarshalLogObject(t *testing.T) {
	msg, err := Decode(mustHex(t, acceptExample))
	require.NoError(t, err)

	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, msg.MarshalLogObject(enc))

	assert.Equal(t, uint8(1), enc.Fields["pduSessionId"])
	assert.Equal(t, "PDU Session Establishment Accept", enc.Fields["messageType"])
	assert.Equal(t, "IPv4", enc.Fields["pduSessionType"])
	assert.Equal(t, "internet.mnc001.mcc001.gprs", enc.Fields["dnn"])
	assert.Equal(t, 1, enc.Fields["warnings"])

	addr, ok := enc.Fields["pduAddress"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "172.26.100.101", addr["ipv4"])
	assert.NotContains(t, addr, "ipv6LinkLocal")

	epco, ok := enc.Fields["epco"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 3, epco["containers"])
	assert.Equal(t, []interface{}{"8.8.8.8"}, epco["dns"])

	rules, ok := enc.Fields["qosRules"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, uint16(9), rules["length"])
	require.Len(t, rules["rules"], 1)
}
