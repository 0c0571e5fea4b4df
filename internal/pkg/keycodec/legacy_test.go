package keycodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/feedbackhub/internal/pkg/apperrors"
)

const (
	smallIDCurrent = "agpzfnRlc3QtYXBwchYLEhBGZWVkYmFja1F1ZXN0aW9uGAEMogEA"
	smallIDFirst   = "agpzfnRlc3QtYXBwchYLEhBGZWVkYmFja1F1ZXN0aW9uGAEM"
	largeIDCurrent = "agpzfnRlc3QtYXBwch0LEhBGZWVkYmFja1F1ZXN0aW9uGICAgICAgIAKDKIBAA"
	largeIDFirst   = "agpzfnRlc3QtYXBwch0LEhBGZWVkYmFja1F1ZXN0aW9uGICAgICAgIAKDA"
	largeID        = int64(5629499534213120)
)

func TestLegacyURLSafeEncoder_Encode(t *testing.T) {
	current := NewLegacyURLSafeEncoder("s~test-app", "")
	first := &LegacyURLSafeEncoder{AppID: "s~test-app"}

	testCases := []struct {
		name string
		enc  *LegacyURLSafeEncoder
		id   int64
		want string
	}{
		{name: "current generation small id", enc: current, id: 1, want: smallIDCurrent},
		{name: "first generation small id", enc: first, id: 1, want: smallIDFirst},
		{name: "current generation large id", enc: current, id: largeID, want: largeIDCurrent},
		{name: "first generation large id", enc: first, id: largeID, want: largeIDFirst},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.enc.Encode("FeedbackQuestion", tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLegacyURLSafeEncoder_EncodeRejectsBadInput(t *testing.T) {
	enc := NewLegacyURLSafeEncoder("s~test-app", "")

	_, err := enc.Encode("", 1)
	assert.Error(t, err)

	_, err = enc.Encode("FeedbackQuestion", 0)
	assert.Error(t, err)

	_, err = NewLegacyURLSafeEncoder(" ", "").Encode("FeedbackQuestion", 1)
	assert.Error(t, err)
}

func TestDeriveExternalIDWithLegacyEncoder(t *testing.T) {
	enc := NewLegacyURLSafeEncoder("s~test-app", "")

	// aligned namespace artifact: stripped entirely
	got, err := DeriveExternalID(enc, "FeedbackQuestion", testKey{id: 1, assigned: true})
	require.NoError(t, err)
	assert.Equal(t, smallIDFirst, got)

	// misaligned namespace artifact: the KIBAA tail is rewritten
	got, err = DeriveExternalID(enc, "FeedbackQuestion", testKey{id: largeID, assigned: true})
	require.NoError(t, err)
	assert.Equal(t, "agpzfnRlc3QtYXBwch0LEhBGZWVkYmFja1F1ZXN0aW9uGICAgICAgIAKDAogEA", got)
}

func TestLegacyURLSafeEncoder_Decode(t *testing.T) {
	enc := NewLegacyURLSafeEncoder("s~test-app", "")

	testCases := []struct {
		name  string
		input string
		id    int64
	}{
		{name: "current generation", input: smallIDCurrent, id: 1},
		{name: "first generation", input: smallIDFirst, id: 1},
		{name: "large id current generation", input: largeIDCurrent, id: largeID},
		{name: "large id first generation", input: largeIDFirst, id: largeID},
		{name: "surrounding whitespace", input: " " + smallIDFirst + " ", id: 1},
		{name: "padded", input: largeIDFirst + "==", id: largeID},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := enc.Decode(tc.input)
			require.NoError(t, err)
			assert.Equal(t, "s~test-app", key.AppID)
			assert.Equal(t, "FeedbackQuestion", key.Kind)
			assert.Equal(t, tc.id, key.ID)
		})
	}
}

func TestLegacyURLSafeEncoder_RoundTripWithNamespace(t *testing.T) {
	enc := NewLegacyURLSafeEncoder("s~test-app", "tenant-a")

	raw, err := enc.Encode("FeedbackQuestion", 987654321)
	require.NoError(t, err)

	key, err := enc.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", key.Namespace)
	assert.Equal(t, int64(987654321), key.ID)
}

func TestLegacyURLSafeEncoder_DecodeMalformed(t *testing.T) {
	enc := NewLegacyURLSafeEncoder("s~test-app", "")

	for _, input := range []string{"", "!!!", "agpzfnRlc3QtYXBw", "AAAA"} {
		_, err := enc.Decode(input)
		assert.ErrorIs(t, err, apperrors.ErrMalformedKey, "input %q", input)
	}
}

func TestLegacyURLSafeEncoder_DecodeDerivedIDs(t *testing.T) {
	enc := NewLegacyURLSafeEncoder("s~test-app", "")

	ids := []int64{largeID, 1 << 40}
	for id := int64(1); id <= 5000; id++ {
		ids = append(ids, id)
	}

	seen := make(map[string]int64, len(ids))
	for _, id := range ids {
		ext, err := DeriveExternalID(enc, "FeedbackQuestion", testKey{id: id, assigned: true})
		require.NoError(t, err)

		key, err := enc.Decode(ext)
		require.NoError(t, err, "id %d ext %s", id, ext)
		require.Equal(t, id, key.ID, "ext %s", ext)
		require.Equal(t, "FeedbackQuestion", key.Kind)

		prev, dup := seen[ext]
		require.False(t, dup, "ids %d and %d share %s", prev, id, ext)
		seen[ext] = id
	}
}

func TestLegacyURLSafeEncoder_DecodeRewrittenTail(t *testing.T) {
	enc := NewLegacyURLSafeEncoder("s~test-app", "")

	ext, err := DeriveExternalID(enc, "FeedbackQuestion", testKey{id: 128, assigned: true})
	require.NoError(t, err)
	require.True(t, len(ext) > 5 && ext[len(ext)-5:] == "AogEA", ext)

	key, err := enc.Decode(ext)
	require.NoError(t, err)
	assert.Equal(t, int64(128), key.ID)

	// garbage with the same tail is still rejected
	_, err = enc.Decode("notakeyAogEA")
	assert.ErrorIs(t, err, apperrors.ErrMalformedKey)
}
