// Package messages holds every user-facing text of the bot in one place.
// Texts are plain English; localization is out of scope for the engine and
// would replace this package wholesale.
package messages

import "fmt"

// Intro and flow control.
const (
	Begin          = "You are about to start the candidate application. It takes about 10 minutes, and you can pause at any time with /pause — your answers are saved as you go."
	BeginReturned  = "Welcome back! Your previous answers are saved. Ready to continue where you left off?"
	BtnBeginGo     = "Let's go"
	BtnBeginCancel = "Not now"
	BtnContinue    = "Continue"
	BeginCancelled = "No problem. Send /apply whenever you are ready."

	StoppedAnswersSaved = "Application paused. Your answers are saved — send /apply to continue."
	CannotGoBack        = "There is no previous question to go back to."
	CannotUseCommand    = "Commands don't work in the middle of the application. Use /undo to go back, /pause to stop, or /keep to keep a previous answer."
	AlreadyApplying     = "You are already filling in the application. Just answer the question above, or /pause to stop."
	AlreadyMember       = "You are already a member — no application needed!"
	AlreadyApplied      = "You have already applied. We will get back to you soon!"
	GenericError        = "Something went wrong on our side. Your progress is saved — please try again."
)

// Question prompts.
const (
	QName   = "What is your full name?"
	QSkills = "Tell us about your skills and background. What do you do best?"

	QSelectDepartments  = "Which departments are you interested in? Pick at least one."
	DepartmentsSelected = "Great, you picked: %s (%d). Next come a few questions for each selected department."
	BtnOK               = "OK"

	DepartmentQuestionHeader = "%s — question %d of %d"
	AlmostDone               = "Almost done! Only %d general questions remain."

	QMotivation  = "Why do you want to join us?"
	QTimeToSpend = "How much time per week are you ready to spend?"
	QDeadlines   = "How do you deal with deadlines? Tell us about a time you had to deliver under pressure."
	QPortfolio   = "Share a link to your portfolio or past work (or describe it in a few words)."
	QLearntFrom  = "Where did you learn about us?"

	TimeHours1to5   = "1–5 hours"
	TimeHours5to10  = "5–10 hours"
	TimeHours10Plus = "10+ hours"
)

// Department question prompts.
const (
	QTech1 = "Which languages and technologies do you use regularly?"
	QTech2 = "Describe a project you are proud of. What was your role?"
	QTech3 = "How do you approach reviewing someone else's code?"
	QTech4 = "Link your GitHub or a code sample."

	QDesign1 = "Which areas of design do you work in?"
	QDesign2 = "What tools do you design with?"
	QDesign3 = "Describe your design process from brief to delivery."

	DesignUxUi   = "UX/UI"
	DesignWeb    = "Web"
	DesignArt    = "Art"
	DesignVector = "Vector"
	DesignSMM    = "SMM"
	DesignPhoto  = "Photo"

	QMedia1 = "What kind of content do you create?"
	QMedia2 = "Which platforms have you grown an audience on, and how?"
	QMedia3 = "Show or describe your best piece of content."

	QManagement1 = "What teams or projects have you managed?"
	QManagement2 = "How do you keep a team on track when priorities change?"
	QManagement3 = "Describe a conflict you resolved within a team."
	QManagement4 = "Which planning or tracking tools do you rely on?"
	QManagement5 = "What does a successful first month in this role look like to you?"
)

// Confirmation and submission.
const (
	Summary             = "Here is your application. Check everything carefully before submitting:\n\n%s"
	BtnSubmit           = "Submit"
	BtnReview           = "Edit answers"
	Submitted           = "Your application is in! We will get back to you soon."
	SubmissionError     = "We could not submit your application right now. Your answers are saved — please try /apply again later."
	SubmissionDuplicate = "Looks like you have already applied. We will get back to you soon!"
	ReviewingHeader     = "Editing your answers — send /keep to leave one unchanged."
	DepartmentsQATitle  = "Department questions"
	EmptyAnswer         = "—"
)

// Question sub-protocol texts.
const (
	BtnConfirm   = "Confirm"
	NoneSelected = "nothing selected"
)

// KeepHint renders the "/keep previous answer" affordance for a prompt footer.
func KeepHint(old string) string {
	return fmt.Sprintf("Send /keep to keep your previous answer:\n%s", old)
}

// SelectedFooter renders the confirmed selection under an answered prompt.
func SelectedFooter(selected string) string {
	return fmt.Sprintf("Selected: %s", selected)
}

// SelectAtLeast renders the minimum-selection notice.
func SelectAtLeast(n int) string {
	return fmt.Sprintf("Select at least %d", n)
}

// TooLong renders the over-length re-prompt notice.
func TooLong(max int) string {
	return fmt.Sprintf("That is a bit too long — please keep it under %d characters.", max)
}

// InvalidName renders the full-name re-prompt notice.
const InvalidName = "That doesn't look like a name. Please send your real full name."

// Commands outside the conversation.
const (
	StartMemberActive   = "Hey, %s! Good to see you. Use /help to look around."
	StartMemberInactive = "Hey, %s! You are marked as an inactive member. Use /help if you want to come back."
	StartCandidate      = "Hi, %s! Your application is on file — we will get back to you soon."
	StartUnknown        = "Hi! We are always looking for new people. Want to join the team?"
	BtnApply            = "I want to apply"

	HelpMemberActive   = "You are a member. Commands: /profile — your profile, /start — greeting."
	HelpMemberInactive = "You are an inactive member. Commands: /profile — your profile, /start — greeting."
	HelpCandidate      = "Your application is being reviewed. We will contact you — no commands needed meanwhile."
	HelpUnknown        = "Commands: /apply — apply to join, /start — about us. During the application: /undo, /pause, /keep."

	ProfileNotMember = "You don't have a profile yet. Send /apply to join!"
)

// Profile renders the member profile summary.
func Profile(name, level, languages string) string {
	return fmt.Sprintf("Name: %s\nLevel: %s\nLanguages: %s", name, level, languages)
}
