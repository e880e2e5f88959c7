package gemini

// DigestPromptTemplate asks the model for a short structured digest of
// one day of group-chat conversation. The format string expects the
// message count and the transcript.
const DigestPromptTemplate = `Analyze this day of conversation from a neighborhood group chat and write a short digest.

Conversation (%d messages):
%s

Structure the digest as:
1. Main discussion topics (2-3 topics)
2. Important questions or problems raised
3. Agreements or decisions (if any)
4. 😂 LAUGHS OF THE DAY: the 1-2 funniest messages (with author)
5. Overall mood

Format: concise, with emoji. At most 600 characters.`
