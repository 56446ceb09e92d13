// Package intent classifies visitor messages with an ordered list of
// surface patterns. The first rule that fires decides the intent.
package intent

import (
	"regexp"
	"strings"
)

// Kind is a recognised intent.
type Kind int

const (
	None Kind = iota
	Greeting
	Decline
	Thanks
	YouToo
	Farewell
	NameQuery
	OwnerNotReplying
	DidntAnswer
	SmallTalk
	EmailAddressRequest
	AlreadyHave
	PreferenceQuestion
	ChooseEmail
	ChoosePhone
	BookingRequest
	Acknowledge
	Negative
)

var kindNames = map[Kind]string{
	None:                "none",
	Greeting:            "greeting",
	Decline:             "decline",
	Thanks:              "thanks",
	YouToo:              "you_too",
	Farewell:            "farewell",
	NameQuery:           "name_query",
	OwnerNotReplying:    "owner_not_replying",
	DidntAnswer:         "didnt_answer",
	SmallTalk:           "small_talk",
	EmailAddressRequest: "email_address_request",
	AlreadyHave:         "already_have",
	PreferenceQuestion:  "preference_question",
	ChooseEmail:         "choose_email",
	ChoosePhone:         "choose_phone",
	BookingRequest:      "booking_request",
	Acknowledge:         "acknowledge",
	Negative:            "negative",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// rule is one predicate in the table. exclude, when set, vetoes a match.
type rule struct {
	kind    Kind
	match   *regexp.Regexp
	exclude *regexp.Regexp
}

func (r rule) matches(text string) bool {
	if !r.match.MatchString(text) {
		return false
	}
	return r.exclude == nil || !r.exclude.MatchString(text)
}

// negation keeps refusals such as "no email please" from counting as a
// channel choice.
var negation = regexp.MustCompile(`\b(no|not|nope|never|don't|dont|do not)\b`)

const replyVerbs = `(repl(y|ies|ying|ied)|respond(s|ing|ed)?|answer(s|ing|ed)?|get(s|ting)? back|call(s|ing|ed)? back)`

// rules is evaluated top to bottom; order is priority.
var rules = []rule{
	{kind: Greeting, match: regexp.MustCompile(`^(hi+|hello+|hey+|heya|hiya|howdy|greetings|good (morning|afternoon|evening))( there| again)?[\s!.,?]*$`)},
	{kind: Decline, match: regexp.MustCompile(`\b(no,? thanks|no,? thank you|not interested|not (right )?now|maybe later|i'?ll pass|never ?mind|don'?t want|do not want|no need)\b|^(i'?m|i am) good(,? thanks?( you)?)?[\s!.,]*$`)},
	{kind: Thanks, match: regexp.MustCompile(`\b(thanks|thank you|thank u|thx|ty|appreciate it|much appreciated)\b`)},
	{kind: YouToo, match: regexp.MustCompile(`\b(you too|u too|same to you)\b`)},
	{kind: Farewell, match: regexp.MustCompile(`\b(bye|goodbye|good bye|see you|see ya|take care|have a (good|great|nice) (day|one|night|evening))\b`)},
	{kind: NameQuery, match: regexp.MustCompile(`\b((what'?s|what is) your name|who (are|r) (you|u)|are you (a )?(bot|robot|human|real person))\b`)},
	{kind: OwnerNotReplying, match: regexp.MustCompile(`\b((nobody|no one|no-one)\b.*\b` + replyVerbs + `|(owner|he|she|they)\b.*\b(not|isn'?t|hasn'?t|haven'?t|never|didn'?t|won'?t|doesn'?t)\b.*\b` + replyVerbs + `)\b`)},
	{kind: DidntAnswer, match: regexp.MustCompile(`\b((didn'?t|did not|haven'?t|have not) (answer|reply|respond)(ed)?|that'?s not what i asked|not my question)\b`)},
	{kind: SmallTalk, match: regexp.MustCompile(`\b(how are you|how r u|how'?s it going|how is it going|what'?s up|whats up|how'?s your day|how is your day)\b`)},
	{kind: EmailAddressRequest, match: regexp.MustCompile(`\b((your|the|owner'?s) e-?mail( address| id)?|e-?mail address)\b`)},
	{kind: AlreadyHave, match: regexp.MustCompile(`\b(already (have|got|know|saved|noted)|got it already|i have it)\b`)},
	{kind: PreferenceQuestion, match: regexp.MustCompile(`\b((which|what)( one| option)?( is| would be| do you)? (better|best|faster|quicker|easier|recommend(ed)?|suggest(ed)?|prefer(red)?)|should i (email|call|use) .*\bor\b)`)},
	{kind: ChooseEmail, match: regexp.MustCompile(`\be-?mail\b`), exclude: negation},
	{kind: ChoosePhone, match: regexp.MustCompile(`\b(phone|call|calling|number|telephone)\b`), exclude: negation},
	{kind: BookingRequest, match: regexp.MustCompile(`\b(book(ing)?|schedul(e|ing)|consult(ation)?|appointment|meeting)\b`)},
	{kind: Acknowledge, match: regexp.MustCompile(`^(ok+|okay|k+|sure|alright|all right|great|cool|nice|perfect|got it|sounds good|yes|yeah|yep|yup|fine|awesome)[\s!.]*$`)},
	{kind: Negative, match: regexp.MustCompile(`^(no+|nope|nah|not really|no way)[\s!.]*$`)},
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// Normalize lower-cases and trims a message and folds typographic
// apostrophes so patterns only need to handle '.
func Normalize(text string) string {
	return apostrophes.Replace(strings.ToLower(strings.TrimSpace(text)))
}

// Classify returns the first intent whose rule fires on text, or None.
func Classify(text string) Kind {
	norm := Normalize(text)
	if norm == "" {
		return None
	}
	for _, r := range rules {
		if r.matches(norm) {
			return r.kind
		}
	}
	return None
}
