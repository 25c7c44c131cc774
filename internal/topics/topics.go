// Package topics holds the canned support topics offered as suggestions.
package topics

import "strings"

// Topic is a common support question with a prepared answer.
type Topic struct {
	ID       string `json:"id" yaml:"id"`
	Question string `json:"question" yaml:"question"`
	Response string `json:"response" yaml:"response"`
}

var all = []Topic{
	{
		ID:       "setup",
		Question: "How do I set up my new Meta Quest?",
		Response: "To set up your new Meta Quest headset:\n\n" +
			"1. Download the Meta Quest app on your smartphone\n" +
			"2. Turn on your headset and follow the on-screen instructions\n" +
			"3. Connect to Wi-Fi through the app\n" +
			"4. Create or log in to your Meta account\n" +
			"5. Set up your Guardian boundary\n" +
			"6. Complete the orientation tutorial\n\n" +
			"If you have any issues during setup, try restarting both your headset and phone.",
	},
	{
		ID:       "battery",
		Question: "Why is my Quest battery draining so quickly?",
		Response: "Several factors can cause faster battery drain on your Meta Quest:\n\n" +
			"- Playing graphics-intensive games\n" +
			"- Using at high brightness settings\n" +
			"- Having background apps running\n" +
			"- Outdated software\n" +
			"- Battery degradation over time\n\n" +
			"Tips to improve battery life:\n\n" +
			"- Lower the brightness\n" +
			"- Turn off the headset when not in use\n" +
			"- Use power-saving modes if available\n" +
			"- Close unused apps\n" +
			"- Update to the latest software\n" +
			"- Consider an external battery pack for extended sessions",
	},
	{
		ID:       "tracking",
		Question: "My Quest controllers aren't tracking properly",
		Response: "If your Meta Quest controllers aren't tracking properly:\n\n" +
			"1. Ensure adequate lighting in your play area (not too bright or too dim)\n" +
			"2. Check that the controller's tracking ring isn't blocked or damaged\n" +
			"3. Replace batteries if power is low\n" +
			"4. Clean the controller's tracking ring and headset cameras\n" +
			"5. Restart your headset\n" +
			"6. Pair the controllers again in the device settings\n\n" +
			"If problems persist, try resetting your Guardian boundary or performing a factory reset as a last resort.",
	},
	{
		ID:       "games",
		Question: "What are the best games available on Meta Quest?",
		Response: "Popular Meta Quest games by category:\n\n" +
			"- Action/Adventure: Resident Evil 4, The Walking Dead: Saints & Sinners\n" +
			"- Rhythm/Fitness: Beat Saber, Supernatural, FitXR\n" +
			"- Shooters: Population: One, Contractors, Onward\n" +
			"- Puzzle: I Expect You To Die, The Room VR\n" +
			"- Social: Rec Room, VRChat, Horizon Worlds\n" +
			"- Sports: Golf+, Eleven Table Tennis\n" +
			"- Horror: Five Nights at Freddy's: Help Wanted, Lies Beneath\n\n" +
			"New titles are released regularly in the Meta Quest Store, with both paid and free options available.",
	},
	{
		ID:       "warranty",
		Question: "How do I submit a warranty claim?",
		Response: "To submit a warranty claim for your Meta Quest:\n\n" +
			"1. Visit support.meta.com/quest\n" +
			"2. Log in with your Meta account\n" +
			"3. Select your device and the issue you're experiencing\n" +
			"4. Follow the troubleshooting steps provided\n" +
			"5. If the issue persists, select the option to contact support\n" +
			"6. Provide your proof of purchase and device serial number when requested\n\n" +
			"Meta Quest headsets typically come with a 1-year limited warranty. " +
			"Support options include repair, replacement, or refund depending on the issue and warranty status.",
	},
}

// All returns every topic in display order.
func All() []Topic {
	return append([]Topic(nil), all...)
}

// Suggestions returns the first n topics, used as quick-reply chips.
func Suggestions(n int) []Topic {
	if n <= 0 {
		return nil
	}
	if n > len(all) {
		n = len(all)
	}
	return append([]Topic(nil), all[:n]...)
}

// Lookup finds a topic by ID, case-insensitively.
func Lookup(id string) (Topic, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, t := range all {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}
